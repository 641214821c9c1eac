// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/jeremymdunne/BMP280/common"
)

// Oversampling affects how much time is taken to measure each of temperature
// and pressure.
type Oversampling uint8

// Possible oversampling values. Off skips the measurement.
const (
	Off  Oversampling = 0
	O1x  Oversampling = 1
	O2x  Oversampling = 2
	O4x  Oversampling = 3
	O8x  Oversampling = 4
	O16x Oversampling = 5
)

func (o Oversampling) asValue() int {
	switch o {
	case O1x:
		return 1
	case O2x:
		return 2
	case O4x:
		return 4
	case O8x:
		return 8
	case O16x:
		return 16
	default:
		return 0
	}
}

func (o Oversampling) String() string {
	if o == Off {
		return "Off"
	}
	return fmt.Sprintf("%dx", o.asValue())
}

// Mode is the power mode stored in ctrl_meas.
type Mode uint8

// Power modes. In Forced mode the device does one conversion then goes back
// to Sleep. In Normal mode it converts continuously, Standby apart.
const (
	Sleep  Mode = 0
	Forced Mode = 1
	Normal Mode = 3
)

// Filter is the IIR filter coefficient.
type Filter uint8

// Possible filtering values.
const (
	FOff Filter = 0
	F2   Filter = 1
	F4   Filter = 2
	F8   Filter = 3
	F16  Filter = 4
)

// Standby is the inactive time between two conversions in Normal mode.
type Standby uint8

// Possible standby values.
const (
	S500us Standby = 0
	S62ms  Standby = 1
	S125ms Standby = 2
	S250ms Standby = 3
	S500ms Standby = 4
	S1s    Standby = 5
	S2s    Standby = 6
	S4s    Standby = 7
)

// Status is the content of the status register.
type Status byte

// Measuring is set while a conversion is running.
func (s Status) Measuring() bool {
	return s&(1<<3) != 0
}

// Updating is set while the calibration is copied to image registers.
func (s Status) Updating() bool {
	return s&1 != 0
}

const (
	// ChipID is the content of the id register of a BMP280.
	ChipID byte = 0x58

	regCalibration byte = 0x88
	regChipID      byte = 0xD0
	regReset       byte = 0xE0
	regStatus      byte = 0xF3
	regCtrlMeas    byte = 0xF4
	regConfig      byte = 0xF5
	regPressMSB    byte = 0xF7
	regTempMSB     byte = 0xFA

	// resetCommand is the only value that triggers a reset when written to
	// regReset.
	resetCommand byte = 0xB6

	// skippedSample is what the data registers hold for a measurement that
	// was skipped.
	skippedSample uint32 = 0x80000

	_DEGREES_RESOLUTION = 10 * physic.MilliKelvin
	// 1/256 Pa.
	_PRESSURE_RESOLUTION = 15625 * physic.MicroPascal / 4
)

// SPI settings. The device supports up to 10MHz in mode 0 or 3, MSB first.
var (
	SpiFrequency = 10 * physic.MegaHertz
	SpiMode      = spi.Mode0
	SpiBits      = 8
)

// Opts defines the options for the device.
type Opts struct {
	Temperature Oversampling
	Pressure    Oversampling
	Mode        Mode
	Filter      Filter
	// Standby only matters in Normal mode.
	Standby Standby
	// ExpectedChipID is compared to the id register on start. Leave 0 for
	// ChipID.
	ExpectedChipID byte
}

// DefaultOpts is the datasheet's recommendation for indoor navigation, the
// highest resolution setting.
var DefaultOpts = Opts{
	Temperature:    O2x,
	Pressure:       O16x,
	Mode:           Normal,
	Filter:         F16,
	Standby:        S500us,
	ExpectedChipID: ChipID,
}

// validate rejects options the compensation cannot work with: pressure is
// derived from the fine temperature, so temperature can't be skipped.
func (o *Opts) validate() error {
	if o.Temperature == Off || o.Temperature > O16x {
		return fmt.Errorf("bmp280: invalid temperature oversampling %s", o.Temperature)
	}
	if o.Pressure > O16x {
		return fmt.Errorf("bmp280: invalid pressure oversampling %d", o.Pressure)
	}
	return nil
}

func (o *Opts) ctrlMeas() byte {
	return byte(o.Temperature)<<5 | byte(o.Pressure)<<2 | byte(o.Mode)
}

func (o *Opts) config() byte {
	return byte(o.Standby)<<5 | byte(o.Filter)<<2
}

// measurementDuration is the datasheet's maximum conversion time.
func (o *Opts) measurementDuration() time.Duration {
	us := 1250 + 2300*o.Temperature.asValue()
	if o.Pressure != Off {
		us += 2300*o.Pressure.asValue() + 575
	}
	return time.Duration(us) * time.Microsecond
}

// Dev is a handle to a BMP280.
type Dev struct {
	t    transport
	name string
	opts Opts
	cal  Calibration

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// New returns an object that communicates over SPI to a BMP280.
//
// cs may be nil when the SPI port drives the chip select line. Otherwise cs
// is held High between transactions and driven Low around each of them.
//
// The chip id is verified before anything else is read, then the
// calibration is read once and the device is configured according to opts.
// A nil opts uses DefaultOpts.
func New(p spi.Port, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	c, err := p.Connect(SpiFrequency, SpiMode, SpiBits)
	if err != nil {
		return nil, fmt.Errorf("bmp280: %w", err)
	}
	return newDev(c, cs, opts)
}

func newDev(c spi.Conn, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	d := &Dev{t: transport{conn: c, cs: cs, debug: noop}, name: "BMP280", opts: *opts}
	if d.opts.ExpectedChipID == 0 {
		d.opts.ExpectedChipID = ChipID
	}
	if cs != nil {
		if err := cs.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("bmp280: chip select: %w", err)
		}
	}
	id, err := d.t.readReg(regChipID)
	if err != nil {
		return nil, err
	}
	if id != d.opts.ExpectedChipID {
		return nil, &UnknownDeviceError{ID: id, Expected: d.opts.ExpectedChipID}
	}
	if err := d.loadCalibration(); err != nil {
		return nil, err
	}
	if err := d.configure(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%s}", d.name, d.t.conn)
}

// EnableDebug sets the function used to trace register accesses.
func (d *Dev) EnableDebug(f DebugF) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f == nil {
		f = noop
	}
	d.t.debug = f
}

// Calibration returns the calibration read when the device was opened.
func (d *Dev) Calibration() Calibration {
	return d.cal
}

// ReadRegister reads one register.
func (d *Dev) ReadRegister(reg byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.readReg(reg)
}

// WriteRegister writes one register.
func (d *Dev) WriteRegister(reg, value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.writeReg(reg, value)
}

// ReadBurst reads n consecutive registers starting at reg in a single
// transaction.
func (d *Dev) ReadBurst(reg byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("bmp280: burst length must be positive")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.readBurst(reg, n)
}

// ChipID reads the id register.
func (d *Dev) ChipID() (byte, error) {
	return d.ReadRegister(regChipID)
}

// Status reads the status register.
func (d *Dev) Status() (Status, error) {
	s, err := d.ReadRegister(regStatus)
	return Status(s), err
}

// Reset triggers a power-on reset by writing 0xB6 to the reset register. The
// device ignores any other value, 0x58 included. The calibration is
// unaffected but the device is back in Sleep mode; call Configure to resume.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.t.writeReg(regReset, resetCommand); err != nil {
		return err
	}
	// Start-up time.
	time.Sleep(2 * time.Millisecond)
	return nil
}

// WriteCtrlMeas writes the oversampling and power mode register verbatim.
func (d *Dev) WriteCtrlMeas(v byte) error {
	return d.WriteRegister(regCtrlMeas, v)
}

// WriteConfig writes the standby and filter register verbatim.
func (d *Dev) WriteConfig(v byte) error {
	return d.WriteRegister(regConfig, v)
}

// Configure applies new options. ExpectedChipID is ignored. A nil opts uses
// DefaultOpts. Temperature can't be Off.
func (d *Dev) Configure(opts *Opts) error {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.opts.ExpectedChipID
	d.opts = *opts
	d.opts.ExpectedChipID = id
	return d.configure()
}

// configure writes config before ctrl_meas since config writes may be
// ignored in Normal mode.
func (d *Dev) configure() error {
	if err := d.t.writeReg(regConfig, d.opts.config()); err != nil {
		return err
	}
	return d.t.writeReg(regCtrlMeas, d.opts.ctrlMeas())
}

func (d *Dev) loadCalibration() error {
	b, err := d.t.readBurst(regCalibration, calibrationSize)
	if err != nil {
		return err
	}
	d.cal, err = ParseCalibration(b)
	return err
}

// ReadRawPressure returns the last pressure conversion, uncompensated.
func (d *Dev) ReadRawPressure() (uint32, error) {
	return d.readSample(regPressMSB)
}

// ReadRawTemperature returns the last temperature conversion, uncompensated.
func (d *Dev) ReadRawTemperature() (uint32, error) {
	return d.readSample(regTempMSB)
}

// ReadRaw returns the last pressure and temperature conversions from a
// single burst, so both belong to the same conversion.
func (d *Dev) ReadRaw() (pressure, temperature uint32, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRaw()
}

func (d *Dev) readSample(reg byte) (uint32, error) {
	b, err := d.ReadBurst(reg, 3)
	if err != nil {
		return 0, err
	}
	return common.Uint20(b[0], b[1], b[2]), nil
}

func (d *Dev) readRaw() (uint32, uint32, error) {
	b, err := d.t.readBurst(regPressMSB, 6)
	if err != nil {
		return 0, 0, err
	}
	return common.Uint20(b[0], b[1], b[2]), common.Uint20(b[3], b[4], b[5]), nil
}

// Sense requests a one time measurement as °C and Pa.
//
// In Sleep or Forced mode a forced conversion is started first and Sense
// waits for it. In Normal mode the last conversion is read.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Mode != Normal {
		if err := d.forceConversion(); err != nil {
			return err
		}
	}
	p, t, err := d.readRaw()
	if err != nil {
		return err
	}
	if t == skippedSample {
		return errors.New("bmp280: no temperature conversion available")
	}
	fine := d.cal.fineTemperature(t)
	e.Temperature = physic.Temperature(centiCelsius(fine))*_DEGREES_RESOLUTION + physic.ZeroCelsius
	if d.opts.Pressure != Off {
		e.Pressure = physic.Pressure(d.cal.pressureQ24_8(p, fine)) * _PRESSURE_RESOLUTION
	}
	return nil
}

// forceConversion must be called with d.mu held.
func (d *Dev) forceConversion() error {
	o := d.opts
	o.Mode = Forced
	if err := d.t.writeReg(regCtrlMeas, o.ctrlMeas()); err != nil {
		return err
	}
	time.Sleep(o.measurementDuration())
	for i := 0; i < 10; i++ {
		s, err := d.t.readReg(regStatus)
		if err != nil {
			return err
		}
		if !Status(s).Measuring() {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return ErrTimeout
}

// SenseContinuous returns measurements as °C and Pa on a continuous basis.
//
// The device keeps its configured mode. For intervals much longer than the
// Normal mode cycle, Forced mode draws less power.
//
// It's the responsibility of the caller to retrieve the values from the
// channel as fast as possible, otherwise the interval may not be respected.
// Call Halt() to stop.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("bmp280: already sensing continuously")
	}
	if interval < d.opts.measurementDuration() {
		return nil, fmt.Errorf("bmp280: interval %s shorter than a conversion", interval)
	}
	sensing := make(chan physic.Env)
	d.stop = make(chan struct{})
	d.wg.Add(1)
	go d.sensingContinuous(interval, sensing, d.stop)
	return sensing, nil
}

func (d *Dev) sensingContinuous(interval time.Duration, sensing chan<- physic.Env, stop <-chan struct{}) {
	defer d.wg.Done()
	defer close(sensing)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			var e physic.Env
			if err := d.Sense(&e); err != nil {
				d.debugf("sense: %v", err)
				continue
			}
			select {
			case sensing <- e:
			case <-stop:
				return
			}
		}
	}
}

func (d *Dev) debugf(format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.t.debug(format, args...)
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = _DEGREES_RESOLUTION
	e.Pressure = _PRESSURE_RESOLUTION
}

// Halt stops continuous sensing and puts the device to sleep. It implements
// conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	o := d.opts
	o.Mode = Sleep
	return d.t.writeReg(regCtrlMeas, o.ctrlMeas())
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
