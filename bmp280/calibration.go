// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import (
	"fmt"

	"github.com/jeremymdunne/BMP280/common"
)

// calibrationSize is the number of bytes in the calibration block at 0x88.
const calibrationSize = 24

// Calibration holds the factory trimming parameters of one sensor unit. The
// names follow the datasheet's dig_T1..dig_P9.
type Calibration struct {
	T1     uint16
	T2, T3 int16
	P1     uint16
	P2, P3 int16
	P4, P5 int16
	P6, P7 int16
	P8, P9 int16
}

// ParseCalibration decodes the calibration block. Each parameter is a little
// endian word, in ascending register order starting at 0x88.
func ParseCalibration(b []byte) (Calibration, error) {
	if len(b) < calibrationSize {
		return Calibration{}, fmt.Errorf("bmp280: calibration block is %d bytes, need %d", len(b), calibrationSize)
	}
	return Calibration{
		T1: common.Uint16LE(b[0:]),
		T2: common.Int16LE(b[2:]),
		T3: common.Int16LE(b[4:]),
		P1: common.Uint16LE(b[6:]),
		P2: common.Int16LE(b[8:]),
		P3: common.Int16LE(b[10:]),
		P4: common.Int16LE(b[12:]),
		P5: common.Int16LE(b[14:]),
		P6: common.Int16LE(b[16:]),
		P7: common.Int16LE(b[18:]),
		P8: common.Int16LE(b[20:]),
		P9: common.Int16LE(b[22:]),
	}, nil
}

// CompensateTemperature returns the temperature in °C with a resolution of
// 0.01 °C, and the fine temperature that CompensatePressure needs.
//
// raw has 20 bits of resolution.
func (c Calibration) CompensateTemperature(raw uint32) (float64, int32) {
	fine := c.fineTemperature(raw)
	return float64(centiCelsius(fine)) / 100, fine
}

// CompensatePressure returns the pressure in Pa. fine must come from
// CompensateTemperature on the temperature sample of the same acquisition.
//
// raw has 20 bits of resolution.
func (c Calibration) CompensatePressure(raw uint32, fine int32) float64 {
	return float64(c.pressureQ24_8(raw, fine)) / 256
}

// Compensate converts one pair of raw samples to °C and Pa.
func (c Calibration) Compensate(rawPressure, rawTemperature uint32) (celsius, pascal float64) {
	celsius, fine := c.CompensateTemperature(rawTemperature)
	return celsius, c.CompensatePressure(rawPressure, fine)
}

// fineTemperature is the datasheet's t_fine. The intermediate products
// exceed 32 bits for some raw values.
func (c Calibration) fineTemperature(raw uint32) int32 {
	adc := int64(raw)
	t1 := int64(c.T1)
	var1 := (((adc >> 3) - (t1 << 1)) * int64(c.T2)) >> 11
	d := (adc >> 4) - t1
	var2 := (((d * d) >> 12) * int64(c.T3)) >> 14
	return int32(var1 + var2)
}

// centiCelsius converts t_fine to hundredths of °C. 5123 equals 51.23 °C.
func centiCelsius(fine int32) int32 {
	return (fine*5 + 128) >> 8
}

// pressureQ24_8 returns the pressure in Pa as an unsigned Q24.8 value:
// 24674867 represents 24674867/256 = 96386.2 Pa. It returns 0 when the
// calibration would divide by zero.
func (c Calibration) pressureQ24_8(raw uint32, fine int32) int64 {
	var1 := int64(fine) - 128000
	var2 := var1 * var1 * int64(c.P6)
	var2 += (var1 * int64(c.P5)) << 17
	var2 += int64(c.P4) << 35
	var1 = ((var1 * var1 * int64(c.P3)) >> 8) + ((var1 * int64(c.P2)) << 12)
	var1 = (((int64(1) << 47) + var1) * int64(c.P1)) >> 33
	if var1 == 0 {
		return 0
	}
	p := 1048576 - int64(raw)
	p = (((p << 31) - var2) * 3125) / var1
	var1 = (int64(c.P9) * (p >> 13) * (p >> 13)) >> 25
	var2 = (int64(c.P8) * p) >> 19
	return ((p + var1 + var2) >> 8) + (int64(c.P7) << 4)
}
