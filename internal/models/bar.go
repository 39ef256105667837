// Package models defines the core domain entities: bar series, indicator
// snapshots, signal results, position recommendations, and alerts.
package models

import (
	"errors"
	"time"
)

// Interval is the bar granularity requested from the market data feed.
type Interval string

const (
	IntervalDaily  Interval = "1d"
	IntervalHourly Interval = "1h"
	Interval15Min  Interval = "15m"
)

// Bar is a single OHLCV bar.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// BarSeries is an ordered, time-indexed sequence of bars for one symbol.
// It is treated as immutable once fetched.
type BarSeries struct {
	Symbol   string   `json:"symbol"`
	Interval Interval `json:"interval"`
	Bars     []Bar    `json:"bars"`
}

// Len returns the number of bars in the series.
func (s *BarSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the closing prices in series order.
func (s *BarSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high prices in series order.
func (s *BarSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low prices in series order.
func (s *BarSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the traded volumes in series order.
func (s *BarSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Last returns the most recent bar. The series must not be empty.
func (s *BarSeries) Last() Bar {
	return s.Bars[len(s.Bars)-1]
}

// Validate checks bar series field constraints.
func (s *BarSeries) Validate() error {
	if s.Symbol == "" {
		return errors.New("bar series symbol must not be empty")
	}
	if len(s.Bars) == 0 {
		return errors.New("bar series must contain at least one bar")
	}
	for i, b := range s.Bars {
		if b.Volume < 0 {
			return errors.New("bar volume must not be negative")
		}
		if b.High < b.Low {
			return errors.New("bar high must be >= bar low")
		}
		if i > 0 && b.Timestamp.Before(s.Bars[i-1].Timestamp) {
			return errors.New("bars must be ordered by timestamp")
		}
	}
	return nil
}
