package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roman-kulish/spirange/internal/measurement"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toConfigData(config any) (sql.NullString, error) {
	var configData sql.NullString
	if config == nil {
		return configData, nil
	}

	switch c := config.(type) {
	case string:
		configData.String = c

	case []byte:
		configData.String = string(c)

	default:
		p, err := json.Marshal(config)
		if err != nil {
			return configData, fmt.Errorf("marshaling config: %w", err)
		}
		configData.String = string(p)
	}

	configData.Valid = true
	return configData, nil
}

func toSessionData(s *measurement.Session, config sql.NullString) *sessionData {
	return &sessionData{
		StartTime:       s.StartTime.UTC(),
		Device:          s.Device,
		SpeedHz:         s.SpeedHz,
		BufSize:         s.BufSize,
		NumMeasurements: s.NumMeasurements,
		SpeedOfSound: sql.NullFloat64{
			Float64: toSQLNullType[float64](s.SpeedOfSound),
			Valid:   s.SpeedOfSound != nil,
		},
		Config: config,
	}
}

func (d *sessionData) toSession() *measurement.Session {
	s := measurement.Session{
		ID:              d.ID,
		StartTime:       d.StartTime,
		Device:          d.Device,
		SpeedHz:         d.SpeedHz,
		BufSize:         d.BufSize,
		NumMeasurements: d.NumMeasurements,
	}
	if d.SpeedOfSound.Valid {
		v := d.SpeedOfSound.Float64
		s.SpeedOfSound = &v
	}
	if d.Config.Valid {
		v := d.Config.String
		s.Config = &v
	}
	return &s
}

func toResultData(r *measurement.Result) *resultData {
	return &resultData{
		SessionID: r.SessionID,
		Timestamp: r.Timestamp.UTC(),
		Median:    r.Median,
		Distance: sql.NullFloat64{
			Float64: toSQLNullType[float64](r.Distance),
			Valid:   r.Distance != nil,
		},
	}
}

func (d *resultData) toResult() *measurement.Result {
	r := measurement.Result{
		SessionID: d.SessionID,
		Timestamp: d.Timestamp,
		Median:    d.Median,
	}
	if d.Distance.Valid {
		v := d.Distance.Float64
		r.Distance = &v
	}
	return &r
}

func toSQLNullType[T float64 | int64, Y float64 | int | int64](f *Y) T {
	if f == nil {
		return 0
	}
	return T(*f)
}
