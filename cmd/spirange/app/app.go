package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/spirange/internal/hcsr04"
	"github.com/roman-kulish/spirange/internal/measurement"
	"github.com/roman-kulish/spirange/internal/spidev"
	"github.com/roman-kulish/spirange/internal/storage"
)

// Run opens the configured device, takes one measurement and writes the
// result line to out.
func Run(ctx context.Context, config *Config, out io.Writer, logger *slog.Logger) error {
	if config.Settings.ListPorts {
		return listPorts(out)
	}

	port, err := spidev.Open(&config.Device)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := port.Close(); cErr != nil {
			logger.Warn(cErr.Error())
		}
	}()

	logger.Debug("device ready",
		slog.Group("spi",
			slog.String("device", port.Path()),
			slog.String("config", config.Device.String()),
			slog.String("conn", port.String()),
			slog.String("speed", humanize.SIWithDigits(float64(config.Device.SpeedHz), 0, "Hz")),
			slog.Int("mode", int(config.Device.Mode())),
			slog.Int("bitsPerWord", spidev.BitsPerWord),
		))

	var store storage.Store
	if config.Storage.Database != "" {
		s := storage.NewSqliteStore(config.Storage.Database)
		defer func() {
			if cErr := s.Close(); cErr != nil {
				logger.Warn(fmt.Sprintf("closing storage: %s", cErr.Error()))
			}
		}()
		store = s
	}

	return measure(ctx, config, port, store, out, logger)
}

// measure runs the measurement loop against conn and reports the result.
// store may be nil.
func measure(ctx context.Context, config *Config, conn hcsr04.Transmitter, store storage.Store, out io.Writer, logger *slog.Logger) error {
	sensor, err := hcsr04.New(conn, config.Measurement.BufSize, hcsr04.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating sensor: %w", err)
	}

	logger.Info("measuring",
		slog.Int("samples", config.Measurement.NumMeasurements),
		slog.String("transfer", humanize.IBytes(uint64(sensor.BufSize()))))

	start := time.Now()
	samples, err := sensor.Measure(ctx, config.Measurement.NumMeasurements)
	if err != nil {
		return err
	}

	result, err := hcsr04.NewResult(samples, config.Measurement.SpeedOfSound, config.Device.SpeedHz)
	if err != nil {
		return fmt.Errorf("computing median: %w", err)
	}

	logger.Info("measurement complete",
		slog.Int("median", result.Median),
		slog.Duration("elapsed", time.Since(start)))

	if store != nil {
		sessionID, err := storeMeasurement(ctx, store, config, start, samples, result)
		if err != nil {
			return err
		}
		logger.Info("measurement stored", slog.Int64("sessionID", sessionID))
	}

	_, err = fmt.Fprintln(out, result.String())
	return err
}

// storeMeasurement records a completed measurement. The session row is only
// written once all transfers succeeded.
func storeMeasurement(ctx context.Context, store storage.Store, config *Config, start time.Time, samples []int, result *hcsr04.Result) (int64, error) {
	session := measurement.Session{
		StartTime:       start,
		Device:          config.Device.Path,
		SpeedHz:         config.Device.SpeedHz,
		BufSize:         config.Measurement.BufSize,
		NumMeasurements: config.Measurement.NumMeasurements,
		SpeedOfSound:    config.Measurement.SpeedOfSound,
	}
	sessionID, err := store.CreateSession(ctx, &session, config)
	if err != nil {
		return 0, fmt.Errorf("creating session: %w", err)
	}
	if err = store.StoreSamples(ctx, sessionID, samples); err != nil {
		return 0, fmt.Errorf("storing samples: %w", err)
	}
	if err = store.StoreResult(ctx, &measurement.Result{
		SessionID: sessionID,
		Timestamp: time.Now(),
		Median:    result.Median,
		Distance:  result.Distance,
	}); err != nil {
		return 0, fmt.Errorf("storing result: %w", err)
	}
	return sessionID, nil
}

func listPorts(out io.Writer) error {
	ports, err := spidev.ListPorts()
	if err != nil {
		return err
	}

	for _, p := range ports {
		if _, err = fmt.Fprintln(out, formatPort(p)); err != nil {
			return err
		}
	}
	return nil
}

// formatPort renders a port as "name #number (aliases)". Ports without a
// bus number report -1.
func formatPort(p spidev.PortInfo) string {
	line := p.Name
	if p.Number >= 0 {
		line += fmt.Sprintf(" #%d", p.Number)
	}
	if len(p.Aliases) != 0 {
		line += " (" + strings.Join(p.Aliases, ", ") + ")"
	}
	return line
}
