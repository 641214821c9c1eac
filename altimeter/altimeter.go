// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package altimeter derives altitude from any pressure sensor implementing
// physic.SenseEnv.
//
// Altitude is relative to a baseline pressure: either a known QNH, or one
// estimated from the sensor itself on start up, in which case altitudes are
// relative to the start position.
package altimeter

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// StandardPressure is the ICAO sea level pressure.
const StandardPressure = 101325 * physic.Pascal

// Altitude returns the height above the level where the pressure is
// baseline, using the international barometric formula. It returns 0 when
// either pressure is out of range.
func Altitude(p, baseline physic.Pressure) physic.Distance {
	if baseline <= 0 || p < 0 {
		return 0
	}
	h := 44330 * (1 - math.Pow(float64(p)/float64(baseline), 0.1903))
	return physic.Distance(h * float64(physic.Metre))
}

// BaselineOpts controls EstimateBaseline.
type BaselineOpts struct {
	// Warmup readings are discarded. The first readings after power up tend
	// to be off.
	Warmup int
	// Samples readings are averaged, each one weighting half of the running
	// value.
	Samples int
	// Interval between two readings.
	Interval time.Duration
}

// DefaultBaselineOpts takes about a second.
var DefaultBaselineOpts = BaselineOpts{
	Warmup:   10,
	Samples:  50,
	Interval: 20 * time.Millisecond,
}

// EstimateBaseline samples s and returns a smoothed pressure. The
// temperature is assumed stable over the sampling period.
func EstimateBaseline(s physic.SenseEnv, o *BaselineOpts) (physic.Pressure, error) {
	if o == nil {
		o = &DefaultBaselineOpts
	}
	if o.Warmup+o.Samples <= 0 {
		return 0, errors.New("altimeter: no samples requested")
	}
	var (
		e        physic.Env
		baseline physic.Pressure
	)
	for i := 0; i < o.Warmup; i++ {
		if err := s.Sense(&e); err != nil {
			return 0, fmt.Errorf("altimeter: warmup: %w", err)
		}
		baseline = e.Pressure
		time.Sleep(o.Interval)
	}
	for i := 0; i < o.Samples; i++ {
		if err := s.Sense(&e); err != nil {
			return 0, fmt.Errorf("altimeter: baseline: %w", err)
		}
		if i == 0 && o.Warmup == 0 {
			baseline = e.Pressure
		} else {
			baseline = (baseline + e.Pressure) / 2
		}
		if i != o.Samples-1 {
			time.Sleep(o.Interval)
		}
	}
	return baseline, nil
}

// Dev is an altimeter on top of a pressure sensor.
type Dev struct {
	s        physic.SenseEnv
	mu       sync.Mutex
	baseline physic.Pressure
}

// New returns an altimeter relative to baseline. If baseline is 0, it is
// estimated from s with o.
func New(s physic.SenseEnv, baseline physic.Pressure, o *BaselineOpts) (*Dev, error) {
	if baseline == 0 {
		var err error
		if baseline, err = EstimateBaseline(s, o); err != nil {
			return nil, err
		}
	}
	return &Dev{s: s, baseline: baseline}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("altimeter{%s}", d.Baseline())
}

// Baseline returns the reference pressure.
func (d *Dev) Baseline() physic.Pressure {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.baseline
}

// SetBaseline changes the reference pressure, for example to a new QNH.
func (d *Dev) SetBaseline(p physic.Pressure) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.baseline = p
}

// Sense reads the sensor into e and returns the altitude of that reading.
func (d *Dev) Sense(e *physic.Env) (physic.Distance, error) {
	if err := d.s.Sense(e); err != nil {
		return 0, err
	}
	return Altitude(e.Pressure, d.Baseline()), nil
}

// Halt implements conn.Resource. It halts the underlying sensor.
func (d *Dev) Halt() error {
	return d.s.Halt()
}
