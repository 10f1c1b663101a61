// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Command heymac-gatewayd runs one or two SX127x radios as a HeyMac MAC
// layer each, bridging every received frame's payload to an MQTT topic
// and every message on a corresponding subscribe topic back out as a
// transmitted frame -- the same role the teacher's mqttradio plays for
// its JeeLabs/LoRa packet formats.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/heymacradio/heymac/frame"
	"github.com/heymacradio/heymac/identity"
	"github.com/heymacradio/heymac/mac"
	"github.com/heymacradio/heymac/spimux"
	"github.com/heymacradio/heymac/sx127x"
	"github.com/heymacradio/heymac/sx127x/periphtransport"
)

func main() {
	configFile := flag.String("config", "heymac-gatewayd.toml", "path to config file")
	flag.Parse()

	var config Config
	if _, err := toml.DecodeFile(*configFile, &config); err != nil {
		fmt.Fprintf(os.Stderr, "cannot read config file: %s\n", err)
		os.Exit(1)
	}
	if len(config.Radio) == 0 {
		fmt.Fprintln(os.Stderr, "at least one radio must be configured")
		os.Exit(1)
	}

	logger := func(string, ...interface{}) {}
	if config.Debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		logger = log.Printf
	}

	id, err := identity.Load(config.Identity.MountPath, config.Identity.FileName)
	if err != nil {
		logger("identity: %v, running as %q", err, id.Name)
	}
	log.Printf("running as %q, operator %q, long address %x", id.Name, id.OperatorID, id.LongAddr)

	if _, err := host.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize host drivers: %s\n", err)
		os.Exit(1)
	}

	br, err := newBroker(config.Mqtt, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot connect to MQTT broker: %s\n", err)
		os.Exit(2)
	}

	rxTopic := config.Mqtt.RxTopic
	if rxTopic == "" {
		rxTopic = "rx"
	}
	txTopic := config.Mqtt.TxTopic
	if txTopic == "" {
		txTopic = "tx"
	}

	pool := frame.NewPool()
	muxedBuses := map[string]*muxedBus{}
	for _, rc := range config.Radio {
		if err := startRadio(rc, pool, br, muxedBuses, rxTopic, txTopic, logger); err != nil {
			fmt.Fprintf(os.Stderr, "cannot start radio %q: %s\n", rc.Prefix, err)
			os.Exit(1)
		}
	}

	log.Printf("gateway ready")
	for {
		time.Sleep(time.Hour)
	}
}

// muxedBus remembers the second spimux.Conn from a New() call so that
// the radio config listing the same SpiBus/CSMuxPin pair a second time
// picks it up instead of re-opening the bus.
type muxedBus struct {
	second *spimux.Conn
	used   bool
}

func startRadio(rc RadioConfig, pool *frame.Pool, br *broker, muxes map[string]*muxedBus, rxTopic, txTopic string, logger func(string, ...interface{})) error {
	spiPort, err := openSPIPort(rc, muxes)
	if err != nil {
		return err
	}
	spi, err := periphtransport.NewSPI(spiPort)
	if err != nil {
		return fmt.Errorf("spi device params: %w", err)
	}

	resetPin := gpioreg.ByName(rc.ResetPin)
	if resetPin == nil {
		return fmt.Errorf("reset pin %q not found", rc.ResetPin)
	}

	var dio [6]sx127x.GPIO
	for i, name := range []string{rc.Dio0Pin, rc.Dio1Pin, "", rc.Dio3Pin, "", ""} {
		if name == "" {
			continue
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			return fmt.Errorf("dio pin %q not found", name)
		}
		dio[i] = periphtransport.NewGPIO(pin)
	}

	m := mac.New(mac.Opts{
		Pool:       pool,
		OperatorID: rc.OperatorID,
		Logger:     mac.LogPrintf(logger),
		OnReceive: func(f *frame.Frame, snr, rssi int) {
			br.publishRx(rc.Prefix+"/"+rxTopic, f.Payload(), snr, rssi)
		},
	})

	radio, err := sx127x.New(spi, sx127x.RadioOpts{
		Reset:    periphtransport.NewGPIO(resetPin),
		DIO:      dio,
		Logger:   sx127x.LogPrintf(logger),
		OnSignal: m.OnDIOSignal,
	})
	if err != nil {
		return fmt.Errorf("radio init: %w", err)
	}
	m.AttachRadio(radio)
	configureRadioSettings(radio, rc)
	radio.StartDIOWatcher()

	if err := br.subscribeTx(rc.Prefix+"/"+txTopic, func(payload []byte) {
		fr, ok := pool.Acquire()
		if !ok {
			logger("%s: tx dropped, frame pool exhausted", rc.Prefix)
			return
		}
		fr.SetProtocol(frame.ProtoCSMAv0)
		if !fr.SetPayload(payload) {
			logger("%s: tx payload too large for one frame", rc.Prefix)
			fr.Destroy()
			return
		}
		if !m.Enqueue(fr, 0) {
			logger("%s: tx dropped, queue full", rc.Prefix)
			fr.Destroy()
		}
	}); err != nil {
		return fmt.Errorf("mqtt subscribe: %w", err)
	}

	m.Start()
	log.Printf("%s: radio running", rc.Prefix)
	return nil
}

// bandwidths maps the config file's human-readable bandwidth names to
// the Field value sx127x.Settings.Set expects.
var bandwidths = map[string]sx127x.Bandwidth{
	"7.8k": sx127x.BW7_8, "10.4k": sx127x.BW10_4, "15.6k": sx127x.BW15_6,
	"20.8k": sx127x.BW20_8, "31.25k": sx127x.BW31_25, "41.7k": sx127x.BW41_7,
	"62.5k": sx127x.BW62_5, "125k": sx127x.BW125, "250k": sx127x.BW250, "500k": sx127x.BW500,
}

func configureRadioSettings(r *sx127x.Radio, rc RadioConfig) {
	s := r.Settings()
	if rc.FreqHz != 0 {
		s.SetFrequencyHz(rc.FreqHz)
	}
	if bw, ok := bandwidths[rc.Bandwidth]; ok {
		s.Set(sx127x.FieldBandwidth, uint32(bw))
	}
	if rc.SpreadFact != 0 {
		s.Set(sx127x.FieldSpreadingFactor, rc.SpreadFact)
	}
	if rc.CodingRate != 0 {
		s.Set(sx127x.FieldCodingRate, rc.CodingRate)
	}
	if rc.OutputPwr != 0 {
		s.Set(sx127x.FieldOutputPower, rc.OutputPwr)
	}
}

// openSPIPort opens rc's SPI bus directly, unless CSMuxPin names a demux
// select pin shared with another radio, in which case the first radio to
// mention a given bus/pin pair opens it and spimux.New splits it into the
// two Conns the pair of radios actually use; the second radio to mention
// that pair picks up the other half from muxes instead of reopening the
// bus.
func openSPIPort(rc RadioConfig, muxes map[string]*muxedBus) (spi.PortCloser, error) {
	if rc.CSMuxPin == "" {
		return spireg.Open(rc.SpiBus)
	}

	key := rc.SpiBus + "/" + rc.CSMuxPin
	if mb, ok := muxes[key]; ok && !mb.used {
		mb.used = true
		return mb.second, nil
	}

	port, err := spireg.Open(rc.SpiBus)
	if err != nil {
		return nil, err
	}
	selPin := gpioreg.ByName(rc.CSMuxPin)
	if selPin == nil {
		return nil, fmt.Errorf("cs mux pin %q not found", rc.CSMuxPin)
	}
	first, second := spimux.New(port, selPin)
	muxes[key] = &muxedBus{second: second}
	return first, nil
}
