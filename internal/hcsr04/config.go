package hcsr04

import "fmt"

const (
	DefaultNumMeasurements = 100
	DefaultBufSize         = 256

	// MaxBufSize is the default spidev transfer buffer limit (bufsiz module
	// parameter).
	MaxBufSize = 4096
)

// Config is the measurement configuration
type Config struct {
	NumMeasurements int      `yaml:"numMeasurements" json:"numMeasurements"`     // -n transfers per measurement
	BufSize         int      `yaml:"bufSize" json:"bufSize"`                     // -b bytes per transfer
	SpeedOfSound    *float64 `yaml:"speedOfSound" json:"speedOfSound,omitempty"` // -c enables scaled output
}

// NewConfig returns a Config with the default sample count and buffer size.
func NewConfig() *Config {
	return &Config{
		NumMeasurements: DefaultNumMeasurements,
		BufSize:         DefaultBufSize,
	}
}

func (c *Config) Validate() error {
	if c.NumMeasurements <= 0 {
		return NewConfigError(fmt.Sprintf("hcsr04.Config: number of measurements must be positive: %d", c.NumMeasurements))
	}
	if c.BufSize <= 0 || c.BufSize > MaxBufSize {
		return NewConfigError(fmt.Sprintf("hcsr04.Config: buffer size must be between 1 and %d bytes: %d", MaxBufSize, c.BufSize))
	}
	if c.SpeedOfSound != nil && *c.SpeedOfSound <= 0 {
		return NewConfigError("hcsr04.Config: speed of sound must be positive")
	}

	return nil
}
