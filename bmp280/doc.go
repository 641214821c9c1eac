// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bmp280 controls a Bosch BMP280 barometric pressure and temperature
// sensor over SPI.
//
// The driver reads the factory calibration once when the device is opened
// and applies the integer compensation formulas from the datasheet to every
// raw sample. Temperature is always compensated first: pressure compensation
// consumes the fine temperature produced by it. Calibration exposes both
// steps so raw samples can be compensated without hardware.
//
// The Dev type implements physic.SenseEnv. Humidity is never set.
//
// # Bus sharing
//
// Every register access is a single chip select bracket. When several drivers
// share one SPI controller, the caller must serialize whole transactions
// across them; Dev only serializes its own accesses.
//
// # Datasheet
//
// https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bmp280-ds001.pdf
//
// The URLs tend to rot, visit https://www.bosch-sensortec.com if it becomes
// invalid.
package bmp280
