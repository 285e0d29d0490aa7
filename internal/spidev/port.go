package spidev

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	// ErrClosed is returned by Tx after the port has been closed
	ErrClosed = errors.New("port closed")

	initOnce sync.Once
	initErr  error
)

// initHost loads the periph host drivers, which registers every
// /dev/spidevB.C node with spireg.
func initHost() error {
	initOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			initErr = fmt.Errorf("initializing host drivers: %w", err)
		}
	})
	return initErr
}

// PortInfo describes a registered SPI port
type PortInfo struct {
	Name    string
	Aliases []string
	Number  int // -1 when the port has no bus number
}

// ListPorts returns all SPI ports the host drivers registered.
func ListPorts() ([]PortInfo, error) {
	if err := initHost(); err != nil {
		return nil, err
	}

	var ports []PortInfo
	for _, ref := range spireg.All() {
		ports = append(ports, PortInfo{
			Name:    ref.Name,
			Aliases: ref.Aliases,
			Number:  ref.Number,
		})
	}
	return ports, nil
}

// Port is an open spidev node connected with a fixed clock and mode
type Port struct {
	path string
	port spi.PortCloser
	conn spi.Conn

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// Open opens the device at config.Path and negotiates mode, word size and
// clock speed with the kernel driver.
func Open(config *Config) (*Port, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := initHost(); err != nil {
		return nil, newError("can't open device", config.Path, err)
	}

	p, err := spireg.Open(config.Path)
	if err != nil {
		return nil, newError("can't open device", config.Path, err)
	}

	conn, err := p.Connect(config.Frequency(), config.Mode(), BitsPerWord)
	if err != nil {
		_ = p.Close()
		return nil, newError("can't set spi mode and speed", config.Path, err)
	}

	return &Port{path: config.Path, port: p, conn: conn}, nil
}

// Tx performs a single full-duplex transfer; w and r must be the same length.
func (p *Port) Tx(w, r []byte) error {
	if p.closed {
		return newError("can't send spi message", p.path, ErrClosed)
	}
	if len(w) != len(r) {
		return newError("can't send spi message", p.path,
			fmt.Errorf("buffer length mismatch: tx=%d rx=%d", len(w), len(r)))
	}
	if err := p.conn.Tx(w, r); err != nil {
		return newError("can't send spi message", p.path, err)
	}
	return nil
}

// Path returns the device node the port was opened from.
func (p *Port) Path() string {
	return p.path
}

func (p *Port) String() string {
	return p.conn.String()
}

// Close releases the device. It is safe to call Close multiple times.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.closed = true
		if err := p.port.Close(); err != nil {
			p.closeErr = newError("can't close device", p.path, err)
		}
	})
	return p.closeErr
}
