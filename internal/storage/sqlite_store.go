package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/spirange/internal/measurement"
)

// maxBatchSize is the number of samples written by a single INSERT statement
const maxBatchSize = 100

// WithMaxBatchSize sets the maximum number of samples inserted by a single
// statement.
func WithMaxBatchSize(size int) func(*SqliteStore) {
	return func(s *SqliteStore) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath       string
	maxBatchSize int

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

var _ Store = (*SqliteStore)(nil)

// NewSqliteStore creates a new store backed by the Sqlite database at dbPath.
// Connections are opened lazily; the schema is created on first write.
func NewSqliteStore(dbPath string, options ...func(*SqliteStore)) *SqliteStore {
	s := SqliteStore{
		dbPath:       dbPath,
		maxBatchSize: maxBatchSize,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateSession(ctx context.Context, session *measurement.Session, config any) (sessionID int64, err error) {
	configData, err := toConfigData(config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if session.StartTime.IsZero() {
		session.StartTime = time.Now()
	}

	data := toSessionData(session, configData)

	result, err := stmt.ExecContext(
		ctx,
		data.StartTime,
		data.Device,
		data.SpeedHz,
		data.BufSize,
		data.NumMeasurements,
		data.SpeedOfSound,
		data.Config,
	)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
		return
	}

	session.ID = sessionID
	return
}

func scanSession(row interface{ Scan(...any) error }) (*measurement.Session, error) {
	var data sessionData
	if err := row.Scan(
		&data.ID,
		&data.StartTime,
		&data.Device,
		&data.SpeedHz,
		&data.BufSize,
		&data.NumMeasurements,
		&data.SpeedOfSound,
		&data.Config,
	); err != nil {
		return nil, err
	}
	return data.toSession(), nil
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *measurement.Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if session, err = scanSession(stmt.QueryRowContext(ctx, id)); err != nil {
		err = fmt.Errorf("scanning session: %w", err)
	}
	return
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*measurement.Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess *measurement.Session
		if sess, err = scanSession(rows); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, sess)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating sessions: %w", err)
	}
	return
}

func (s *SqliteStore) StoreSamples(ctx context.Context, sessionID int64, samples []int) (err error) {
	if len(samples) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	// Continue the sequence of previously stored samples
	var seq int
	if err = tx.QueryRowContext(ctx, countSamplesSQL, sessionID).Scan(&seq); err != nil {
		return fmt.Errorf("counting samples: %w", err)
	}

	valuesPlaceholder := "(?, ?, ?)"

	for chunk := range slices.Chunk(samples, s.maxBatchSize) {
		values := make([]any, 0, len(chunk)*3)

		var sb strings.Builder
		sb.WriteString(insertSamplesSQL)

		for i, highBits := range chunk {
			values = append(values, sessionID, seq, highBits)
			seq++

			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(valuesPlaceholder)
		}

		if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
			return fmt.Errorf("batch inserting samples: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) Samples(ctx context.Context, sessionID int64) (samples []int, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSamplesSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying samples: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var highBits int
		if err = rows.Scan(&highBits); err != nil {
			err = fmt.Errorf("scanning sample: %w", err)
			return
		}
		samples = append(samples, highBits)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating samples: %w", err)
	}
	return
}

func (s *SqliteStore) StoreResult(ctx context.Context, result *measurement.Result) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}

	data := toResultData(result)
	if _, err = db.ExecContext(ctx, insertResultSQL, data.SessionID, data.Timestamp, data.Median, data.Distance); err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}

	return nil
}

func (s *SqliteStore) Result(ctx context.Context, sessionID int64) (result *measurement.Result, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	var data resultData
	if err = db.QueryRowContext(ctx, selectResultSQL, sessionID).Scan(&data.SessionID, &data.Timestamp, &data.Median, &data.Distance); err != nil {
		err = fmt.Errorf("scanning result: %w", err)
		return
	}

	return data.toResult(), nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
