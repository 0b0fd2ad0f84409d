// Command device-info probes a connected analyzer for its identity: model
// number, serial number, and firmware version.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/vswr.report/internal/serialport"
	"github.com/banshee-data/vswr.report/internal/tpi"
)

func main() {
	portPath := flag.String("port", "/dev/ttyUSB0", "serial port of the analyzer")
	flag.Parse()

	link, err := serialport.Open(*portPath, serialport.DefaultOptions(), serialport.NewRealFactory())
	if err != nil {
		log.Fatalf("open %s: %v", *portPath, err)
	}
	defer link.Close()

	client := tpi.NewClient(link)
	if err := client.EnableUserControl(); err != nil {
		log.Fatalf("enable user control: %v", err)
	}

	model, err := client.ReadModelNumber()
	if err != nil {
		log.Fatalf("read model number: %v", err)
	}
	serial, err := client.ReadSerialNumber()
	if err != nil {
		log.Fatalf("read serial number: %v", err)
	}
	firmware, err := client.ReadFirmwareVersion()
	if err != nil {
		log.Fatalf("read firmware version: %v", err)
	}

	fmt.Printf("Model Number:     %s\n", model)
	fmt.Printf("Serial Number:    %s\n", serial)
	fmt.Printf("Firmware Version: %s\n", firmware)
}
