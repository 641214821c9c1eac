// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// DebugF the debug function type.
type DebugF func(string, ...interface{})

// readBit is set in the address byte of every read. Writes clear it.
const readBit = 0x80

// transport frames register accesses as chip select brackets on an SPI
// connection.
type transport struct {
	conn  spi.Conn
	cs    gpio.PinOut
	debug DebugF
}

// tx runs one chip select bracket. When cs is nil the SPI controller's native
// chip select frames the transfer. The line is released even if the transfer
// fails.
func (t *transport) tx(op string, reg byte, w, r []byte) error {
	if t.cs != nil {
		if err := t.cs.Out(gpio.Low); err != nil {
			return &CommError{Op: op, Reg: reg, Err: err}
		}
	}
	err := t.conn.Tx(w, r)
	if t.cs != nil {
		err = errors.Join(err, t.cs.Out(gpio.High))
	}
	if err != nil {
		return &CommError{Op: op, Reg: reg, Err: err}
	}
	return nil
}

func (t *transport) readReg(reg byte) (byte, error) {
	t.debug("read register %x", reg)
	var (
		buf = [...]byte{reg | readBit, 0}
		res [2]byte
	)
	if err := t.tx("read", reg, buf[:], res[:]); err != nil {
		return 0, err
	}
	t.debug("register content %x:%x", res[0], res[1])
	return res[1], nil
}

func (t *transport) writeReg(reg, value byte) error {
	t.debug("write register %x value %x", reg, value)
	buf := [...]byte{reg &^ readBit, value}
	return t.tx("write", reg, buf[:], nil)
}

// readBurst reads n consecutive registers starting at reg. The device auto
// increments its address pointer while chip select stays asserted, so the
// whole block is one snapshot.
func (t *transport) readBurst(reg byte, n int) ([]byte, error) {
	t.debug("burst read %x len %d", reg, n)
	w := make([]byte, n+1)
	w[0] = reg | readBit
	r := make([]byte, n+1)
	if err := t.tx("burst read", reg, w, r); err != nil {
		return nil, err
	}
	t.debug("burst content %x", r[1:])
	return r[1:], nil
}

func noop(string, ...interface{}) {}
