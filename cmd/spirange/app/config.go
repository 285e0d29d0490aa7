package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/spirange/internal/hcsr04"
	"github.com/roman-kulish/spirange/internal/spidev"
)

const defaultLogLevel = "warn"

// ErrUsage is returned for malformed command lines; the usage text has
// already been written when it is returned.
var ErrUsage = errors.New("invalid usage")

// Config represents the main application configuration
type Config struct {
	Settings    Settings      `yaml:"settings" json:"-"`
	Device      spidev.Config `yaml:"device" json:"device"`
	Measurement hcsr04.Config `yaml:"measurement" json:"measurement"`
	Storage     StorageConfig `yaml:"storage" json:"-"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel  string `yaml:"logLevel"`
	ListPorts bool   `yaml:"-"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	Database string `yaml:"database"` // SQLite file, measurements are not stored when empty
}

// NewConfig returns a Config with all defaults applied.
func NewConfig() *Config {
	return &Config{
		Settings:    Settings{LogLevel: defaultLogLevel},
		Device:      *spidev.NewConfig(),
		Measurement: *hcsr04.NewConfig(),
	}
}

// load reads the YAML configuration file at path on top of the current values.
func (c *Config) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding config file '%s': %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Settings.LogLevel)
	}
	if err := c.Device.Validate(); err != nil {
		return err
	}
	return c.Measurement.Validate()
}

// Level returns the configured log level. Validate guarantees it parses.
func (c *Config) Level() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Settings.LogLevel))
	return level
}

// canonical maps every short flag to its long name
var canonical = map[string]string{
	"D": "device",
	"s": "speed",
	"n": "num-measurements",
	"b": "buf-size",
	"c": "speed-of-sound",
	"H": "cpha",
	"O": "cpol",
	"L": "lsb",
	"N": "no-cs",
}

const usageText = `Usage: %s [-DsnbcHOLN]
  -D --device            device to use (default %s)
  -s --speed             max speed (Hz) (default %d)
  -n --num-measurements  number of transfers to take the median of (default %d)
  -b --buf-size          bytes per transfer (default %d)
  -c --speed-of-sound    print the median scaled by speed-of-sound / speed
  -H --cpha              clock phase
  -O --cpol              clock polarity
  -L --lsb               least significant bit first
  -N --no-cs             no chip select
     --config            YAML configuration file
     --db                SQLite database to record the measurement in
     --log-level         log level: debug, info, warn, error (default %s)
     --list              list SPI ports and exit
`

// NewConfigFromCLI parses args (without the program name). Values are
// resolved in order: defaults, the --config file, explicitly set flags.
// Usage is written to output on any parse or validation error.
func NewConfigFromCLI(prog string, args []string, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet(prog, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, usageText, prog,
			spidev.DefaultPath, spidev.DefaultSpeedHz,
			hcsr04.DefaultNumMeasurements, hcsr04.DefaultBufSize,
			defaultLogLevel)
	}

	var (
		device          string
		speed           int64
		numMeasurements int
		bufSize         int
		speedOfSound    float64
		cpha, cpol      bool
		lsb, noCS       bool
		configPath      string
		database        string
		logLevel        string
		listPorts       bool
	)

	for _, name := range []string{"D", "device"} {
		fs.StringVar(&device, name, spidev.DefaultPath, "device to use")
	}
	for _, name := range []string{"s", "speed"} {
		fs.Int64Var(&speed, name, spidev.DefaultSpeedHz, "max speed (Hz)")
	}
	for _, name := range []string{"n", "num-measurements"} {
		fs.IntVar(&numMeasurements, name, hcsr04.DefaultNumMeasurements, "number of transfers")
	}
	for _, name := range []string{"b", "buf-size"} {
		fs.IntVar(&bufSize, name, hcsr04.DefaultBufSize, "bytes per transfer")
	}
	for _, name := range []string{"c", "speed-of-sound"} {
		fs.Float64Var(&speedOfSound, name, 0, "speed of sound")
	}
	for _, name := range []string{"H", "cpha"} {
		fs.BoolVar(&cpha, name, false, "clock phase")
	}
	for _, name := range []string{"O", "cpol"} {
		fs.BoolVar(&cpol, name, false, "clock polarity")
	}
	for _, name := range []string{"L", "lsb"} {
		fs.BoolVar(&lsb, name, false, "least significant bit first")
	}
	for _, name := range []string{"N", "no-cs"} {
		fs.BoolVar(&noCS, name, false, "no chip select")
	}
	fs.StringVar(&configPath, "config", "", "YAML configuration file")
	fs.StringVar(&database, "db", "", "SQLite database")
	fs.StringVar(&logLevel, "log-level", defaultLogLevel, "log level")
	fs.BoolVar(&listPorts, "list", false, "list SPI ports and exit")

	if err := fs.Parse(args); err != nil {
		// fs has printed the error and usage
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected argument: %s", fs.Arg(0))
		fmt.Fprintln(output, err)
		fs.Usage()
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	c := NewConfig()
	if configPath != "" {
		if err := c.load(configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := canonical[name]; ok {
			name = long
		}

		switch name {
		case "device":
			c.Device.Path = device
		case "speed":
			c.Device.SpeedHz = speed
		case "num-measurements":
			c.Measurement.NumMeasurements = numMeasurements
		case "buf-size":
			c.Measurement.BufSize = bufSize
		case "speed-of-sound":
			c.Measurement.SpeedOfSound = &speedOfSound
		case "cpha":
			c.Device.CPHA = cpha
		case "cpol":
			c.Device.CPOL = cpol
		case "lsb":
			c.Device.LSBFirst = lsb
		case "no-cs":
			c.Device.NoCS = noCS
		case "db":
			c.Storage.Database = database
		case "log-level":
			c.Settings.LogLevel = strings.ToLower(logLevel)
		}
	})
	c.Settings.ListPorts = listPorts

	if err := c.Validate(); err != nil {
		fmt.Fprintln(output, err)
		fs.Usage()
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	return c, nil
}
