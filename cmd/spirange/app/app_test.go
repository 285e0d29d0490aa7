package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/roman-kulish/spirange/internal/spidev"
	"github.com/roman-kulish/spirange/internal/storage"
)

// echoBus replays one echo per transfer, cycling through echoes
type echoBus struct {
	echoes [][]byte
	calls  int
	err    error
}

func (b *echoBus) Tx(w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	copy(r, b.echoes[b.calls%len(b.echoes)])
	b.calls++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(c *qt.C, args ...string) *Config {
	config, err := NewConfigFromCLI("spirange", args, &bytes.Buffer{})
	c.Assert(err, qt.IsNil)
	return config
}

func TestMeasure_RawCount(t *testing.T) {
	c := qt.New(t)
	config := testConfig(c, "-n", "5", "-b", "4")

	bus := &echoBus{echoes: [][]byte{
		{0x07, 0x00, 0x00, 0x00}, // 3
		{0x01, 0x00, 0x00, 0x00}, // 1
		{0x0F, 0x00, 0x00, 0x00}, // 4
		{0x00, 0x00, 0x00, 0x80}, // 1
		{0x1F, 0x00, 0x00, 0x00}, // 5
	}}

	var out bytes.Buffer
	err := measure(context.Background(), config, bus, nil, &out, discardLogger())
	c.Assert(err, qt.IsNil)
	c.Check(bus.calls, qt.Equals, 5)
	c.Check(out.String(), qt.Equals, "3\n")
}

func TestMeasure_Distance(t *testing.T) {
	c := qt.New(t)
	config := testConfig(c, "-n", "3", "-b", "2", "-s", "1000000", "-c", "34300")

	bus := &echoBus{echoes: [][]byte{{0xFF, 0x03}}} // 10 high bits

	var out bytes.Buffer
	err := measure(context.Background(), config, bus, nil, &out, discardLogger())
	c.Assert(err, qt.IsNil)
	c.Check(out.String(), qt.Equals, "0.343\n")
}

func TestMeasure_TransferError(t *testing.T) {
	c := qt.New(t)
	config := testConfig(c, "-n", "3")

	errTx := errors.New("ioctl failed")
	bus := &echoBus{err: errTx}

	var out bytes.Buffer
	err := measure(context.Background(), config, bus, nil, &out, discardLogger())
	c.Assert(err, qt.ErrorIs, errTx)
	c.Check(out.Len(), qt.Equals, 0)
}

func TestMeasure_Stored(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	dbPath := filepath.Join(c.TempDir(), "spirange.sqlite")
	config := testConfig(c, "-n", "4", "-b", "1", "-c", "343", "--db", dbPath)

	bus := &echoBus{echoes: [][]byte{{0x01}, {0x03}, {0x07}, {0x0F}}}

	store := storage.NewSqliteStore(config.Storage.Database)
	defer store.Close()

	var out bytes.Buffer
	err := measure(ctx, config, bus, store, &out, discardLogger())
	c.Assert(err, qt.IsNil)

	sessions, err := store.Sessions(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(sessions, qt.HasLen, 1)
	c.Check(sessions[0].NumMeasurements, qt.Equals, 4)
	c.Check(sessions[0].Device, qt.Equals, spidev.DefaultPath)
	c.Assert(sessions[0].Config, qt.IsNotNil)

	samples, err := store.Samples(ctx, sessions[0].ID)
	c.Assert(err, qt.IsNil)
	c.Check(samples, qt.DeepEquals, []int{1, 2, 3, 4})

	result, err := store.Result(ctx, sessions[0].ID)
	c.Assert(err, qt.IsNil)
	c.Check(result.Median, qt.Equals, 3)
	c.Assert(result.Distance, qt.IsNotNil)
	c.Check(*result.Distance, qt.Equals, 3*343.0/500_000)
}

func TestMeasure_TransferErrorNotStored(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	dbPath := filepath.Join(c.TempDir(), "spirange.sqlite")
	config := testConfig(c, "-n", "3", "-b", "1", "--db", dbPath)

	store := storage.NewSqliteStore(config.Storage.Database)
	defer store.Close()

	bus := &echoBus{echoes: [][]byte{{0x03}}}
	c.Assert(measure(ctx, config, bus, store, &bytes.Buffer{}, discardLogger()), qt.IsNil)

	// A failed run leaves no session behind
	errTx := errors.New("ioctl failed")
	bus.err = errTx
	var out bytes.Buffer
	err := measure(ctx, config, bus, store, &out, discardLogger())
	c.Assert(err, qt.ErrorIs, errTx)
	c.Check(out.Len(), qt.Equals, 0)

	sessions, err := store.Sessions(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(sessions, qt.HasLen, 1)

	samples, err := store.Samples(ctx, sessions[0].ID)
	c.Assert(err, qt.IsNil)
	c.Check(samples, qt.DeepEquals, []int{2, 2, 2})
}

func TestFormatPort(t *testing.T) {
	c := qt.New(t)

	c.Check(formatPort(spidev.PortInfo{Name: "SPI0.0", Aliases: []string{"/dev/spidev0.0"}, Number: 0}),
		qt.Equals, "SPI0.0 #0 (/dev/spidev0.0)")
	c.Check(formatPort(spidev.PortInfo{Name: "SPI1.2", Number: -1}), qt.Equals, "SPI1.2")
}

func TestRun_InvalidDevice(t *testing.T) {
	c := qt.New(t)
	config := testConfig(c, "-D", "/dev/spidev-does-not-exist")

	var out bytes.Buffer
	err := Run(context.Background(), config, &out, discardLogger())
	c.Assert(err, qt.ErrorMatches, "can't open device /dev/spidev-does-not-exist: .*")
	c.Check(out.Len(), qt.Equals, 0)
}
