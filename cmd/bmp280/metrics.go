// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"periph.io/x/conn/v3/physic"
)

// metrics exports the last reading.
type metrics struct {
	reg         *prometheus.Registry
	temperature prometheus.Gauge
	pressure    prometheus.Gauge
	altitude    prometheus.Gauge
	readings    prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bmp280_temperature_celsius",
			Help: "Last compensated temperature.",
		}),
		pressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bmp280_pressure_pascals",
			Help: "Last compensated pressure.",
		}),
		altitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bmp280_altitude_metres",
			Help: "Altitude relative to the reference pressure.",
		}),
		readings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmp280_readings_total",
			Help: "Readings taken.",
		}),
	}
	m.reg.MustRegister(m.temperature, m.pressure, m.altitude, m.readings)
	return m
}

func (m *metrics) observe(e physic.Env, h *physic.Distance) {
	m.temperature.Set(e.Temperature.Celsius())
	m.pressure.Set(float64(e.Pressure) / float64(physic.Pascal))
	if h != nil {
		m.altitude.Set(float64(*h) / float64(physic.Metre))
	}
	m.readings.Inc()
}

func (m *metrics) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	return mux
}

func (m *metrics) serve(addr string) error {
	return http.ListenAndServe(addr, m.handler())
}
