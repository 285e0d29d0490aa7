package measurement

import "time"

// Session represents a single ranging run against one device.
// Each session captures how the sensor was sampled.
type Session struct {
	ID              int64     `json:"ID"`                      // Unique identifier for the session
	StartTime       time.Time `json:"startTime"`               // When the session began
	Device          string    `json:"device"`                  // spidev node, e.g. "/dev/spidev0.0"
	SpeedHz         int64     `json:"speedHz"`                 // SPI clock speed in Hz
	BufSize         int       `json:"bufSize"`                 // Bytes exchanged per transfer
	NumMeasurements int       `json:"numMeasurements"`         // Transfers per measurement
	SpeedOfSound    *float64  `json:"speedOfSound,omitempty"`  // Scaling constant, nil for raw output
	Config          *string   `json:"config,string,omitempty"` // Optional full configuration in JSON format
}

// Result is the outcome of a session: the median high bit count and, when a
// speed of sound was configured, the distance derived from it.
type Result struct {
	SessionID int64     `json:"sessionID"`
	Timestamp time.Time `json:"timestamp"`
	Median    int       `json:"median"`
	Distance  *float64  `json:"distance,omitempty"`
}
