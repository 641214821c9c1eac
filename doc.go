// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices is a container for the BMP280 barometer driver and the
// tools built on top of it.
//
// The driver lives in bmp280, altitude helpers in altimeter, trace rendering
// in barograph and the command line tool in cmd/bmp280.
package devices
