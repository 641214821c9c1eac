// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package barograph

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
)

func env(hPa, celsius int) physic.Env {
	return physic.Env{
		Pressure:    physic.Pressure(hPa) * 100 * physic.Pascal,
		Temperature: physic.ZeroCelsius + physic.Temperature(celsius)*physic.Kelvin,
	}
}

func TestTraceCapacity(t *testing.T) {
	tr := NewTrace(3)
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tr.Add(start.Add(time.Duration(i)*time.Minute), env(1000+i, 20))
	}
	if tr.Len() != 3 {
		t.Fatalf("Len()=%d expected 3", tr.Len())
	}
	s := tr.Samples()
	if s[0].Env.Pressure != 100200*physic.Pascal || s[2].Env.Pressure != 100400*physic.Pascal {
		t.Errorf("unexpected samples %v", s)
	}
	s[0].Env.Pressure = 0
	if tr.Samples()[0].Env.Pressure == 0 {
		t.Error("Samples() must return a copy")
	}
}

// hasColor reports whether img holds a pixel where the dominant channel
// exceeds the others by a wide margin.
func hasColor(img image.Image, red bool) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, bl, _ := img.At(x, y).RGBA()
			r, bl = r>>8, bl>>8
			if red && r > bl+100 {
				return true
			}
			if !red && bl > r+100 {
				return true
			}
		}
	}
	return false
}

func TestDraw(t *testing.T) {
	tr := NewTrace(10)
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		tr.Add(start.Add(time.Duration(i)*time.Minute), env(1000+i%3, 15+i))
	}
	img, err := tr.Draw(320, 160)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 160 {
		t.Errorf("bounds %v", b)
	}
	if !hasColor(img, false) {
		t.Error("pressure curve not drawn")
	}
	if !hasColor(img, true) {
		t.Error("temperature curve not drawn")
	}
}

func TestDrawSingleSample(t *testing.T) {
	tr := NewTrace(10)
	tr.Add(time.Now(), env(1013, 20))
	if _, err := tr.Draw(200, 100); err != nil {
		t.Fatal(err)
	}
}

func TestDrawErrors(t *testing.T) {
	tr := NewTrace(10)
	if _, err := tr.Draw(200, 100); err == nil {
		t.Error("expected error on empty trace")
	}
	tr.Add(time.Now(), env(1013, 20))
	if _, err := tr.Draw(50, 50); err == nil {
		t.Error("expected error on tiny image")
	}
}

func TestWritePNG(t *testing.T) {
	tr := NewTrace(10)
	start := time.Now()
	tr.Add(start, env(1013, 20))
	tr.Add(start.Add(time.Second), env(1012, 21))
	var buf bytes.Buffer
	if err := tr.WritePNG(&buf, 240, 120); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 240 || b.Dy() != 120 {
		t.Errorf("bounds %v", b)
	}
}
