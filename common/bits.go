// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, unpacking the top-justified 20 bit ADC samples used by Bosch
// barometers.
package common

// Uint20 assembles a 20 bit sample from three register bytes read most
// significant first. The sample is top-justified: the low nibble of xlsb is
// not part of the value and is discarded.
func Uint20(msb, lsb, xlsb byte) uint32 {
	return uint32(msb)<<12 | uint32(lsb)<<4 | uint32(xlsb)>>4
}

// Uint16LE returns the unsigned little endian word starting at b[0].
func Uint16LE(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// Int16LE returns the two's complement little endian word starting at b[0].
func Int16LE(b []byte) int16 {
	return int16(Uint16LE(b))
}
