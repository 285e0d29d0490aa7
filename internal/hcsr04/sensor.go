package hcsr04

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// triggerMarker is clocked out on MOSI first; its eight high bits form the
// trigger pulse, the zeros that follow keep Trig low while MISO samples Echo.
const triggerMarker = 0xFF

// Transmitter performs one full-duplex transfer of len(w) bytes, reading the
// same number of bytes into r.
type Transmitter interface {
	Tx(w, r []byte) error
}

// WithLogger sets the logger for the sensor
func WithLogger(logger *slog.Logger) func(s *Sensor) {
	return func(s *Sensor) {
		s.logger = logger.With(slog.Int("bufSize", len(s.tx)))
	}
}

// Sensor is an HC-SR04 rangefinder with Trig wired to MOSI and Echo wired to
// MISO of an SPI bus
type Sensor struct {
	conn Transmitter

	tx []byte
	rx []byte

	logger *slog.Logger
}

// New creates a Sensor transferring bufSize bytes per sample, with a discard
// logger.
func New(conn Transmitter, bufSize int, options ...func(s *Sensor)) (*Sensor, error) {
	if conn == nil {
		return nil, fmt.Errorf("cannot create sensor with nil transmitter")
	}
	if bufSize <= 0 || bufSize > MaxBufSize {
		return nil, fmt.Errorf("invalid buffer size: %d", bufSize)
	}

	s := Sensor{
		conn:   conn,
		tx:     make([]byte, bufSize),
		rx:     make([]byte, bufSize),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&s)
	}

	return &s, nil
}

// BufSize returns the number of bytes exchanged per transfer.
func (s *Sensor) BufSize() int {
	return len(s.tx)
}

// Transfer triggers the sensor once and returns the number of high bits
// sampled on the echo line.
func (s *Sensor) Transfer() (int, error) {
	clear(s.tx)
	clear(s.rx)
	s.tx[0] = triggerMarker

	if err := s.conn.Tx(s.tx, s.rx); err != nil {
		return 0, err
	}

	high := HighBits(s.rx)
	s.logger.Debug("transfer complete",
		slog.Int("highBits", high),
		slog.Int("lastHighBit", LastHighBit(s.rx)))

	return high, nil
}

// Measure performs n sequential transfers and returns their high bit counts
// in the order they were taken. The first failed transfer ends the
// measurement.
func (s *Sensor) Measure(ctx context.Context, n int) ([]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of measurements: %d", n)
	}

	samples := make([]int, n)
	for i := range samples {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("measurement interrupted after %d samples: %w", i, err)
		}

		high, err := s.Transfer()
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		samples[i] = high
	}

	return samples, nil
}
