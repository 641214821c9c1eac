// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package barograph records pressure and temperature readings over time and
// draws them as a chart, like the paper drum of a mechanical barograph.
package barograph

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/physic"
)

// Sample is one reading.
type Sample struct {
	Time time.Time
	Env  physic.Env
}

// Trace is a bounded history of readings. The oldest reading is dropped
// when the capacity is reached. It is safe for concurrent use.
type Trace struct {
	mu       sync.Mutex
	samples  []Sample
	capacity int
}

// NewTrace returns a Trace holding at most capacity readings.
func NewTrace(capacity int) *Trace {
	if capacity < 1 {
		capacity = 1
	}
	return &Trace{capacity: capacity, samples: make([]Sample, 0, capacity)}
}

// Add appends a reading.
func (t *Trace) Add(at time.Time, e physic.Env) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.samples) == t.capacity {
		copy(t.samples, t.samples[1:])
		t.samples = t.samples[:len(t.samples)-1]
	}
	t.samples = append(t.samples, Sample{Time: at, Env: e})
}

// Len returns the number of readings held.
func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples)
}

// Samples returns a copy of the readings, oldest first.
func (t *Trace) Samples() []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Sample(nil), t.samples...)
}

const margin = 40

var (
	faceOnce sync.Once
	faceErr  error
	ttf      *truetype.Font
)

func labelFace() (font.Face, error) {
	faceOnce.Do(func() {
		ttf, faceErr = truetype.Parse(goregular.TTF)
	})
	if faceErr != nil {
		return nil, faceErr
	}
	return truetype.NewFace(ttf, &truetype.Options{Size: 11}), nil
}

// series is one curve and its value range.
type series struct {
	values   []float64
	min, max float64
}

func newSeries(samples []Sample, f func(physic.Env) float64) series {
	s := series{values: make([]float64, len(samples)), min: math.Inf(1), max: math.Inf(-1)}
	for i := range samples {
		v := f(samples[i].Env)
		s.values[i] = v
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
	}
	if s.max-s.min < 1 {
		mid := (s.max + s.min) / 2
		s.min, s.max = mid-0.5, mid+0.5
	}
	return s
}

func hectoPascal(e physic.Env) float64 {
	return float64(e.Pressure) / float64(100*physic.Pascal)
}

func celsius(e physic.Env) float64 {
	return e.Temperature.Celsius()
}

// Draw renders the trace in a w x h image. Pressure in hPa is drawn in blue
// against the left scale, temperature in °C in red against the right scale.
func (t *Trace) Draw(w, h int) (image.Image, error) {
	samples := t.Samples()
	if len(samples) == 0 {
		return nil, errors.New("barograph: empty trace")
	}
	if w <= 2*margin || h <= 2*margin {
		return nil, fmt.Errorf("barograph: %dx%d is too small", w, h)
	}
	face, err := labelFace()
	if err != nil {
		return nil, fmt.Errorf("barograph: %w", err)
	}
	pressure := newSeries(samples, hectoPascal)
	temperature := newSeries(samples, celsius)

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(face)

	left, right := float64(margin), float64(w-margin)
	top, bottom := float64(margin)/2, float64(h-margin)
	dc.SetRGB(0.6, 0.6, 0.6)
	dc.SetLineWidth(1)
	dc.DrawRectangle(left, top, right-left, bottom-top)
	dc.Stroke()

	start, end := samples[0].Time, samples[len(samples)-1].Time
	span := end.Sub(start)
	x := func(i int) float64 {
		if span <= 0 {
			if len(samples) == 1 {
				return (left + right) / 2
			}
			return left + (right-left)*float64(i)/float64(len(samples)-1)
		}
		return left + (right-left)*float64(samples[i].Time.Sub(start))/float64(span)
	}
	plot := func(s series, r, g, b float64) {
		y := func(v float64) float64 {
			return bottom - (bottom-top)*(v-s.min)/(s.max-s.min)
		}
		dc.SetRGB(r, g, b)
		dc.SetLineWidth(2)
		if len(s.values) == 1 {
			dc.DrawCircle(x(0), y(s.values[0]), 2)
			dc.Fill()
			return
		}
		for i, v := range s.values {
			if i == 0 {
				dc.MoveTo(x(i), y(v))
			} else {
				dc.LineTo(x(i), y(v))
			}
		}
		dc.Stroke()
	}
	plot(pressure, 0.1, 0.3, 0.8)
	plot(temperature, 0.8, 0.2, 0.1)

	dc.SetRGB(0.1, 0.3, 0.8)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", pressure.max), left-4, top, 1, 1)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", pressure.min), left-4, bottom, 1, 0)
	dc.SetRGB(0.8, 0.2, 0.1)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", temperature.max), right+4, top, 0, 1)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", temperature.min), right+4, bottom, 0, 0)
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.DrawStringAnchored(start.Format("15:04:05"), left, bottom+4, 0, 1)
	dc.DrawStringAnchored(end.Format("15:04:05"), right, bottom+4, 1, 1)
	dc.DrawStringAnchored("hPa / °C", (left+right)/2, bottom+4, 0.5, 1)
	return dc.Image(), nil
}

// WritePNG draws the trace and encodes it as PNG.
func (t *Trace) WritePNG(out io.Writer, w, h int) error {
	img, err := t.Draw(w, h)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	return dc.EncodePNG(out)
}
