// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Command heymac-bench drives one SX127x radio through the mac package
// end to end and prints timing and link-quality numbers, the same tx/rx
// exercise the teacher's sx1276-test runs against the lower-level
// sx1276 driver directly.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/heymacradio/heymac/frame"
	"github.com/heymacradio/heymac/mac"
	"github.com/heymacradio/heymac/sx127x"
	"github.com/heymacradio/heymac/sx127x/periphtransport"
)

func main() {
	spiBus := flag.String("spi", "/dev/spidev0.0", "periph SPI port name")
	resetPin := flag.String("reset", "", "reset GPIO pin name")
	dio0Pin := flag.String("dio0", "", "DIO0 GPIO pin name")
	dio1Pin := flag.String("dio1", "", "DIO1 GPIO pin name")
	dio3Pin := flag.String("dio3", "", "DIO3 GPIO pin name")
	freqHz := flag.Uint("freq", 434000000, "carrier frequency in Hz")
	count := flag.Int("count", 10, "number of frames to send, in tx mode")
	mode := flag.String("mode", "rx", `"tx" to send count frames, "rx" to print received frames until interrupted`)
	flag.Parse()

	if *resetPin == "" {
		log.Fatal("-reset is required")
	}

	if _, err := host.Init(); err != nil {
		log.Fatalf("host.Init: %v", err)
	}
	port, err := spireg.Open(*spiBus)
	if err != nil {
		log.Fatalf("spireg.Open(%q): %v", *spiBus, err)
	}
	spi, err := periphtransport.NewSPI(port)
	if err != nil {
		log.Fatalf("spi device params: %v", err)
	}
	rst := gpioreg.ByName(*resetPin)
	if rst == nil {
		log.Fatalf("reset pin %q not found", *resetPin)
	}

	var dio [6]sx127x.GPIO
	for i, name := range []string{*dio0Pin, *dio1Pin, "", *dio3Pin, "", ""} {
		if name == "" {
			continue
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			log.Fatalf("dio pin %q not found", name)
		}
		dio[i] = periphtransport.NewGPIO(pin)
	}

	pool := frame.NewPool()
	received := make(chan struct {
		payload   []byte
		snr, rssi int
	}, 16)

	m := mac.New(mac.Opts{
		Pool:       pool,
		OperatorID: "BENCH",
		Logger:     mac.LogPrintf(log.Printf),
		OnReceive: func(f *frame.Frame, snr, rssi int) {
			payload := append([]byte(nil), f.Payload()...)
			received <- struct {
				payload   []byte
				snr, rssi int
			}{payload, snr, rssi}
		},
	})

	radio, err := sx127x.New(spi, sx127x.RadioOpts{
		Reset:    periphtransport.NewGPIO(rst),
		DIO:      dio,
		Logger:   sx127x.LogPrintf(log.Printf),
		OnSignal: m.OnDIOSignal,
	})
	if err != nil {
		log.Fatalf("radio init: %v", err)
	}
	m.AttachRadio(radio)

	s := radio.Settings()
	s.SetFrequencyHz(uint32(*freqHz))
	s.Set(sx127x.FieldBandwidth, uint32(sx127x.BW500))
	radio.StartDIOWatcher()
	m.Start()

	switch *mode {
	case "tx":
		for i := 1; i <= *count; i++ {
			fr, ok := pool.Acquire()
			if !ok {
				log.Fatal("frame pool exhausted")
			}
			fr.SetProtocol(frame.ProtoCSMAv0)
			msg := fmt.Sprintf("bench %04d", i)
			fr.SetPayload([]byte(msg))

			t0 := time.Now()
			if !m.Enqueue(fr, 0) {
				log.Printf("frame %d dropped, tx queue full", i)
				fr.Destroy()
				continue
			}
			log.Printf("enqueued frame %d (%q) after %.1fms", i, msg, time.Since(t0).Seconds()*1000)
			time.Sleep(200 * time.Millisecond)
		}
		time.Sleep(200 * time.Millisecond)

	default:
		log.Printf("listening for frames ...")
		for pkt := range received {
			log.Printf("rx len=%d snr=%ddB rssi=%ddBm %q", len(pkt.payload), pkt.snr, pkt.rssi, string(pkt.payload))
		}
	}

	m.Stop()
	m.Join()
}
