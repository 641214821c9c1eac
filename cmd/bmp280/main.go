// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// bmp280 reads a BMP280 connected over SPI and prints temperature, pressure
// and optionally altitude.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeremymdunne/BMP280/altimeter"
	"github.com/jeremymdunne/BMP280/barograph"
	"github.com/jeremymdunne/BMP280/bmp280"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func mainImpl() error {
	spiID := flag.String("spi", "", "SPI port to use")
	csName := flag.String("cs", "", "GPIO used as chip select; empty when the SPI port drives it")
	var hz physic.Frequency
	flag.Var(&hz, "hz", "SPI port max speed")
	interval := flag.Duration("interval", time.Second, "time between readings")
	count := flag.Int("n", 0, "number of readings, 0 for no limit")
	forced := flag.Bool("forced", false, "use forced mode instead of normal mode")
	altitude := flag.Bool("altitude", false, "print the altitude relative to -qnh, or to the start position")
	var qnh physic.Pressure
	flag.Var(&qnh, "qnh", "reference pressure for -altitude; estimated on start when unset")
	httpAddr := flag.String("http", "", "serve Prometheus metrics on this address, e.g. :9280")
	graph := flag.String("graph", "", "write a barograph PNG to this path on exit")
	graphSize := flag.Int("graph-samples", 3600, "readings kept for -graph")
	colorMode := flag.String("color", "auto", "colorize output: auto, always or never")
	verbose := flag.Bool("v", false, "trace register accesses")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if _, err := host.Init(); err != nil {
		return err
	}
	p, err := spireg.Open(*spiID)
	if err != nil {
		return err
	}
	defer p.Close()
	if hz != 0 {
		if err := p.LimitSpeed(hz); err != nil {
			return err
		}
	}
	var cs gpio.PinOut
	if *csName != "" {
		pin := gpioreg.ByName(*csName)
		if pin == nil {
			return fmt.Errorf("no such GPIO %q", *csName)
		}
		cs = pin
	}

	opts := bmp280.DefaultOpts
	if *forced {
		opts.Mode = bmp280.Forced
	}
	d, err := bmp280.New(p, cs, &opts)
	if err != nil {
		return err
	}
	defer d.Halt()
	if *verbose {
		d.EnableDebug(log.Printf)
	}
	log.Printf("%s calibration %+v", d, d.Calibration())

	var alt *altimeter.Dev
	if *altitude {
		if alt, err = altimeter.New(d, qnh, nil); err != nil {
			return err
		}
		log.Printf("%s", alt)
	}

	var trace *barograph.Trace
	if *graph != "" {
		trace = barograph.NewTrace(*graphSize)
	}
	var m *metrics
	if *httpAddr != "" {
		m = newMetrics()
		go func() {
			if err := m.serve(*httpAddr); err != nil {
				fmt.Fprintf(os.Stderr, "bmp280: metrics: %s.\n", err)
			}
		}()
	}

	c, err := d.SenseContinuous(*interval)
	if err != nil {
		return err
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	out := newPrinter(*colorMode)
loop:
	for n := 0; *count == 0 || n < *count; n++ {
		var e physic.Env
		select {
		case <-sig:
			break loop
		case v, ok := <-c:
			if !ok {
				break loop
			}
			e = v
		}
		var h *physic.Distance
		if alt != nil {
			v := altimeter.Altitude(e.Pressure, alt.Baseline())
			h = &v
		}
		out.print(e, h)
		if trace != nil {
			trace.Add(time.Now(), e)
		}
		if m != nil {
			m.observe(e, h)
		}
	}
	if trace != nil && trace.Len() != 0 {
		return writeGraph(*graph, trace)
	}
	return nil
}

func writeGraph(path string, trace *barograph.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trace.WritePNG(f, 800, 400); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "bmp280: %s.\n", err)
		os.Exit(1)
	}
}
