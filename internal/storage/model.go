package storage

import (
	"database/sql"
	"time"
)

type sessionData struct {
	ID              int64
	StartTime       time.Time
	Device          string
	SpeedHz         int64
	BufSize         int
	NumMeasurements int
	SpeedOfSound    sql.NullFloat64
	Config          sql.NullString
}

type resultData struct {
	SessionID int64
	Timestamp time.Time
	Median    int
	Distance  sql.NullFloat64
}
