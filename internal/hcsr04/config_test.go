package hcsr04

import (
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	positive := 343.0
	zero := 0.0

	testCases := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults", *NewConfig(), false},
		{"with speed of sound", Config{NumMeasurements: 5, BufSize: 4, SpeedOfSound: &positive}, false},
		{"zero measurements", Config{NumMeasurements: 0, BufSize: 4}, true},
		{"zero buffer", Config{NumMeasurements: 5, BufSize: 0}, true},
		{"oversized buffer", Config{NumMeasurements: 5, BufSize: MaxBufSize + 1}, true},
		{"zero speed of sound", Config{NumMeasurements: 5, BufSize: 4, SpeedOfSound: &zero}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.wantErr {
				var configErr *ConfigError
				if !errors.As(err, &configErr) {
					t.Errorf("Expected *ConfigError, got %T: %v", err, err)
				}
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
