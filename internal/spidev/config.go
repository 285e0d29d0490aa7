package spidev

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// DefaultPath is the spidev node the rangefinder is wired to on the
	// reference board.
	DefaultPath = "/dev/spidev32766.0"

	// DefaultSpeedHz is the default SPI clock.
	DefaultSpeedHz = 500_000

	// BitsPerWord is fixed, the echo is sampled byte by byte.
	BitsPerWord = 8
)

// Config is the SPI device configuration
type Config struct {
	Path    string `yaml:"path" json:"path"`       // -D spidev node
	SpeedHz int64  `yaml:"speedHz" json:"speedHz"` // -s max clock speed (Hz)

	// Mode bits
	CPHA     bool `yaml:"cpha" json:"cpha"`         // -H clock phase
	CPOL     bool `yaml:"cpol" json:"cpol"`         // -O clock polarity
	LSBFirst bool `yaml:"lsbFirst" json:"lsbFirst"` // -L least significant bit first
	NoCS     bool `yaml:"noCS" json:"noCS"`         // -N no chip select
}

// NewConfig returns a Config holding the default device and clock.
func NewConfig() *Config {
	return &Config{
		Path:    DefaultPath,
		SpeedHz: DefaultSpeedHz,
	}
}

func (c *Config) Validate() error {
	if c.Path == "" {
		return NewConfigError("spidev.Config: device path is required")
	}
	if c.SpeedHz <= 0 {
		return NewConfigError(fmt.Sprintf("spidev.Config: speed must be positive: %d", c.SpeedHz))
	}

	return nil
}

// Mode returns the SPI mode word built from the configured bits.
func (c *Config) Mode() spi.Mode {
	mode := spi.Mode0
	if c.CPHA {
		mode |= spi.Mode1
	}
	if c.CPOL {
		mode |= spi.Mode2
	}
	if c.LSBFirst {
		mode |= spi.LSBFirst
	}
	if c.NoCS {
		mode |= spi.NoCS
	}
	return mode
}

// Frequency returns the configured clock speed.
func (c *Config) Frequency() physic.Frequency {
	return physic.Frequency(c.SpeedHz) * physic.Hertz
}

func (c *Config) String() string {
	return fmt.Sprintf("%s@%s mode=%#x", c.Path, c.Frequency(), uint32(c.Mode()))
}
