// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import (
	"errors"
	"fmt"
)

var (
	// ErrCommFailure is matched by errors.Is for any transport failure.
	ErrCommFailure = errors.New("bmp280: communication failure")
	// ErrUnknownDevice is matched by errors.Is when the chip id is wrong.
	ErrUnknownDevice = errors.New("bmp280: unknown device")
	// ErrTimeout is returned when a forced conversion does not complete.
	ErrTimeout = errors.New("bmp280: measurement timeout")
)

// CommError reports a failed register transaction. It is not retried.
type CommError struct {
	Op  string
	Reg byte
	Err error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("bmp280: %s register %#02x: %v", e.Op, e.Reg, e.Err)
}

func (e *CommError) Unwrap() error {
	return e.Err
}

func (e *CommError) Is(target error) bool {
	return target == ErrCommFailure
}

// UnknownDeviceError is returned by New when the chip id register does not
// hold the expected value. Nothing else is read from such a device.
type UnknownDeviceError struct {
	ID       byte
	Expected byte
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("bmp280: unexpected chip id %#02x, expected %#02x", e.ID, e.Expected)
}

func (e *UnknownDeviceError) Is(target error) bool {
	return target == ErrUnknownDevice
}
