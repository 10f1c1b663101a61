// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Command heymac-regdump resets one SX127x and prints a fixed selection of
// its registers,
// the same sanity check the teacher's rfm-check performs by hand against
// raw SPI transactions, but against the sx127x driver's own register
// addresses and silicon-version check instead of hardcoded literals.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/heymacradio/heymac/sx127x"
	"github.com/heymacradio/heymac/sx127x/periphtransport"
)

func main() {
	spiBus := flag.String("spi", "/dev/spidev0.0", "periph SPI port name")
	resetPin := flag.String("reset", "", "reset GPIO pin name")
	flag.Parse()

	if *resetPin == "" {
		fmt.Fprintln(os.Stderr, "-reset is required")
		os.Exit(1)
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

	radio, err := sx127x.New(spi, sx127x.RadioOpts{
		Reset:  periphtransport.NewGPIO(rst),
		Logger: sx127x.LogPrintf(log.Printf),
	})
	if err != nil {
		log.Fatalf("radio init: %v", err)
	}

	version, err := radio.ReadRegister(sx127x.RegVersion)
	if err != nil {
		log.Fatalf("read RegVersion: %v", err)
	}
	if version == sx127x.SiliconRevision {
		fmt.Printf("silicon revision %#x: OK\n", version)
	} else {
		fmt.Printf("silicon revision %#x: unexpected, want %#x\n", version, sx127x.SiliconRevision)
	}

	fmt.Printf("mode: %v\n", radio.Mode())
	for _, reg := range namedRegisters {
		v, err := radio.ReadRegister(reg.addr)
		if err != nil {
			fmt.Printf("  %-14s %#02x: error: %v\n", reg.name, reg.addr, err)
			continue
		}
		fmt.Printf("  %-14s %#02x: %#02x\n", reg.name, reg.addr, v)
	}
}

type namedRegister struct {
	name string
	addr byte
}

// namedRegisters lists the registers worth a human glance; it's a subset
// of registers.go's full address space, not an exhaustive dump.
var namedRegisters = []namedRegister{
	{"OpMode", sx127x.RegOpMode},
	{"FrfMSB", sx127x.RegFrfMSB},
	{"FrfMID", sx127x.RegFrfMID},
	{"FrfLSB", sx127x.RegFrfLSB},
	{"PAConfig", sx127x.RegPAConfig},
	{"OCP", sx127x.RegOCP},
	{"LNA", sx127x.RegLNA},
	{"IRQMask", sx127x.RegIRQMask},
	{"IRQFlags", sx127x.RegIRQFlags},
	{"ModemStat", sx127x.RegModemStat},
	{"PktSNR", sx127x.RegPktSNR},
	{"PktRSSI", sx127x.RegPktRSSI},
	{"CurrRSSI", sx127x.RegCurrRSSI},
	{"ModemConf1", sx127x.RegModemConf1},
	{"ModemConf2", sx127x.RegModemConf2},
	{"ModemConf3", sx127x.RegModemConf3},
	{"SyncWord", sx127x.RegSyncWord},
	{"DIOMapping1", sx127x.RegDIOMapping1},
	{"DIOMapping2", sx127x.RegDIOMapping2},
	{"Version", sx127x.RegVersion},
}
