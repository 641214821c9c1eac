// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package altimeter

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
)

// fakeSensor returns the pressures in order, then fails.
type fakeSensor struct {
	pressures []physic.Pressure
	count     int
	halted    bool
}

func (f *fakeSensor) String() string {
	return "fake"
}

func (f *fakeSensor) Halt() error {
	f.halted = true
	return nil
}

func (f *fakeSensor) Sense(e *physic.Env) error {
	if f.count >= len(f.pressures) {
		return errors.New("no more readings")
	}
	e.Pressure = f.pressures[f.count]
	e.Temperature = physic.ZeroCelsius + 20*physic.Kelvin
	f.count++
	return nil
}

func (f *fakeSensor) SenseContinuous(time.Duration) (<-chan physic.Env, error) {
	return nil, errors.New("not supported")
}

func (f *fakeSensor) Precision(e *physic.Env) {
	e.Pressure = physic.Pascal
}

func TestAltitude(t *testing.T) {
	var tests = []struct {
		p, baseline physic.Pressure
		expected    physic.Distance
	}{
		{StandardPressure, StandardPressure, 0},
		{89874600 * physic.MilliPascal, StandardPressure, 1000 * physic.Metre},
		{100000 * physic.Pascal, StandardPressure, 111 * physic.Metre},
		{StandardPressure, 0, 0},
		{-physic.Pascal, StandardPressure, 0},
	}
	for _, test := range tests {
		h := Altitude(test.p, test.baseline)
		if d := h - test.expected; d > physic.Metre || d < -physic.Metre {
			t.Errorf("Altitude(%s, %s)=%s expected %s", test.p, test.baseline, h, test.expected)
		}
	}
	if Altitude(90000*physic.Pascal, StandardPressure) <= Altitude(95000*physic.Pascal, StandardPressure) {
		t.Error("altitude must increase as pressure drops")
	}
}

func TestEstimateBaseline(t *testing.T) {
	f := &fakeSensor{pressures: []physic.Pressure{
		// Warmup, discarded except for the last one.
		1 * physic.Pascal, 100000 * physic.Pascal,
		// 100000 -> 100200 -> 100100.
		100400 * physic.Pascal, 100000 * physic.Pascal,
	}}
	p, err := EstimateBaseline(f, &BaselineOpts{Warmup: 2, Samples: 2})
	if err != nil {
		t.Fatal(err)
	}
	if p != 100100*physic.Pascal {
		t.Errorf("baseline %s != 100.1kPa", p)
	}
	if f.count != 4 {
		t.Errorf("%d readings, expected 4", f.count)
	}
}

func TestEstimateBaselineNoWarmup(t *testing.T) {
	f := &fakeSensor{pressures: []physic.Pressure{100000 * physic.Pascal, 100200 * physic.Pascal}}
	p, err := EstimateBaseline(f, &BaselineOpts{Samples: 2})
	if err != nil {
		t.Fatal(err)
	}
	if p != 100100*physic.Pascal {
		t.Errorf("baseline %s != 100.1kPa", p)
	}
}

func TestEstimateBaselineErrors(t *testing.T) {
	if _, err := EstimateBaseline(&fakeSensor{}, &BaselineOpts{}); err == nil {
		t.Error("expected error without samples")
	}
	if _, err := EstimateBaseline(&fakeSensor{}, &BaselineOpts{Samples: 1}); err == nil {
		t.Error("expected error from sensor")
	}
}

func TestDev(t *testing.T) {
	f := &fakeSensor{pressures: []physic.Pressure{StandardPressure, 89874600 * physic.MilliPascal}}
	d, err := New(f, 0, &BaselineOpts{Samples: 1})
	if err != nil {
		t.Fatal(err)
	}
	if d.Baseline() != StandardPressure {
		t.Errorf("baseline %s != %s", d.Baseline(), StandardPressure)
	}
	e := physic.Env{}
	h, err := d.Sense(&e)
	if err != nil {
		t.Fatal(err)
	}
	if diff := h - 1000*physic.Metre; diff > physic.Metre || diff < -physic.Metre {
		t.Errorf("altitude %s != 1km", h)
	}
	d.SetBaseline(e.Pressure)
	if d.Baseline() != e.Pressure {
		t.Error("SetBaseline() ignored")
	}
	if len(d.String()) == 0 {
		t.Error("invalid String() result")
	}
	if err := d.Halt(); err != nil || !f.halted {
		t.Errorf("Halt() not forwarded: %v", err)
	}
}
