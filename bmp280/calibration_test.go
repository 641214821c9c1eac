// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Calibration of the datasheet's worked example, section 8.2 table 16.
var datasheetCalibration = Calibration{
	T1: 27504, T2: 26435, T3: -1000,
	P1: 36477, P2: -10685, P3: 3024,
	P4: 2855, P5: 140, P6: -7,
	P7: 15500, P8: -14600, P9: 6000,
}

// datasheetCalibrationBytes is datasheetCalibration as laid out at 0x88.
var datasheetCalibrationBytes = []byte{
	0x70, 0x6b, 0x43, 0x67, 0x18, 0xfc, 0x7d, 0x8e, 0x43, 0xd6, 0xd0, 0x0b,
	0x27, 0x0b, 0x8c, 0x00, 0xf9, 0xff, 0x8c, 0x3c, 0xf8, 0xc6, 0x70, 0x17,
}

const (
	datasheetRawTemperature = 519888
	datasheetRawPressure    = 415148
)

func TestParseCalibration(t *testing.T) {
	c, err := ParseCalibration(datasheetCalibrationBytes)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(datasheetCalibration, c); diff != "" {
		t.Errorf("ParseCalibration() mismatch (-want +got):\n%s", diff)
	}
	if _, err := ParseCalibration(datasheetCalibrationBytes[:23]); err == nil {
		t.Error("expected error on short calibration block")
	}
}

func TestCompensateTemperature(t *testing.T) {
	celsius, fine := datasheetCalibration.CompensateTemperature(datasheetRawTemperature)
	if fine != 128422 {
		t.Errorf("fine temperature %d != 128422", fine)
	}
	if math.Abs(celsius-25.08) > 0.001 {
		t.Errorf("temperature %.4f != 25.08", celsius)
	}
	if c := centiCelsius(fine); c != 2508 {
		t.Errorf("centiCelsius(%d)=%d expected 2508", fine, c)
	}
}

func TestCompensatePressure(t *testing.T) {
	_, fine := datasheetCalibration.CompensateTemperature(datasheetRawTemperature)
	if q := datasheetCalibration.pressureQ24_8(datasheetRawPressure, fine); q != 25767233 {
		t.Errorf("pressureQ24_8()=%d expected 25767233", q)
	}
	p := datasheetCalibration.CompensatePressure(datasheetRawPressure, fine)
	if p != 25767233.0/256 {
		t.Errorf("pressure %f != %f", p, 25767233.0/256)
	}
	// The datasheet publishes 100653.27 Pa for the 64 bit formula.
	if math.Abs(p-100653.27) > 0.05 {
		t.Errorf("pressure %.4f too far from 100653.27", p)
	}
}

func TestCompensate(t *testing.T) {
	celsius, pascal := datasheetCalibration.Compensate(datasheetRawPressure, datasheetRawTemperature)
	for i := 0; i < 3; i++ {
		c, p := datasheetCalibration.Compensate(datasheetRawPressure, datasheetRawTemperature)
		if c != celsius || p != pascal {
			t.Fatalf("run %d: (%f, %f) != (%f, %f)", i, c, p, celsius, pascal)
		}
	}
	wantC, fine := datasheetCalibration.CompensateTemperature(datasheetRawTemperature)
	if wantP := datasheetCalibration.CompensatePressure(datasheetRawPressure, fine); celsius != wantC || pascal != wantP {
		t.Errorf("Compensate()=(%f, %f) expected (%f, %f)", celsius, pascal, wantC, wantP)
	}
}

func TestCompensatePressureDivisionByZero(t *testing.T) {
	c := datasheetCalibration
	c.P1 = 0
	_, fine := c.CompensateTemperature(datasheetRawTemperature)
	if p := c.CompensatePressure(datasheetRawPressure, fine); p != 0 {
		t.Errorf("pressure %f != 0", p)
	}
}

func TestCompensateRange(t *testing.T) {
	// The full 20 bit range must not trip on overflow in the temperature
	// stage: the result has to be monotonic in the raw value.
	c := datasheetCalibration
	c.T2 = math.MaxInt16
	c.T3 = 0
	prev := int32(math.MinInt32)
	for raw := uint32(0); raw <= 0xFFFFF; raw += 0x1000 {
		_, fine := c.CompensateTemperature(raw)
		if fine < prev {
			t.Fatalf("fine temperature decreased at raw %#x: %d < %d", raw, fine, prev)
		}
		prev = fine
	}
}
