// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/physic"
)

// printer writes one line per reading. With colors on, the line starts with a
// swatch going from blue at -10°C to red at 40°C.
type printer struct {
	w       io.Writer
	color   bool
	palette ansi256.Palette
	buf     bytes.Buffer
}

func newPrinter(mode string) *printer {
	p := &printer{w: colorable.NewColorableStdout(), palette: *ansi256.Default}
	switch mode {
	case "always":
		p.color = true
	case "never":
	default:
		fd := os.Stdout.Fd()
		p.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	if !p.color {
		p.w = colorable.NewNonColorable(os.Stdout)
	}
	return p
}

// swatch maps a temperature to a color.
func swatch(t physic.Temperature) color.NRGBA {
	f := (t.Celsius() + 10) / 50
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return color.NRGBA{R: uint8(255 * f), G: 64, B: uint8(255 * (1 - f)), A: 255}
}

func (p *printer) print(e physic.Env, h *physic.Distance) {
	p.buf.Reset()
	if p.color {
		_, _ = p.buf.WriteString(p.palette.Block(swatch(e.Temperature)))
		_, _ = p.buf.WriteString("\033[0m ")
	}
	_, _ = fmt.Fprintf(&p.buf, "%8s %10s", e.Temperature, e.Pressure)
	if h != nil {
		_, _ = fmt.Fprintf(&p.buf, " %10s", *h)
	}
	_ = p.buf.WriteByte('\n')
	_, _ = p.buf.WriteTo(p.w)
}
