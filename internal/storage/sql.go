package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      device,
                      speed_hz,
                      buf_size,
                      num_measurements,
                      speed_of_sound,
                      config)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectSessionSQL = `
SELECT 
    id, 
    start_time, 
    device, 
    speed_hz, 
    buf_size, 
    num_measurements, 
    speed_of_sound, 
    config 
FROM sessions 
WHERE 
    id = ?`

	selectSessionsSQL = `
SELECT 
    id, 
    start_time, 
    device, 
    speed_hz, 
    buf_size, 
    num_measurements, 
    speed_of_sound, 
    config 
FROM sessions
ORDER BY start_time, id`

	insertSamplesSQL = `
INSERT INTO samples (
                     session_id,
                     seq,
                     high_bits)
VALUES `

	selectSamplesSQL = `
SELECT 
    high_bits 
FROM samples 
WHERE 
    session_id = ? 
ORDER BY seq`

	countSamplesSQL = `
SELECT 
    COUNT(*) 
FROM samples 
WHERE 
    session_id = ?`

	insertResultSQL = `
INSERT OR REPLACE INTO results (
                                session_id,
                                timestamp,
                                median,
                                distance)
VALUES (?, ?, ?, ?)`

	selectResultSQL = `
SELECT 
    session_id, 
    timestamp, 
    median, 
    distance 
FROM results 
WHERE 
    session_id = ?`
)

var (
	//go:embed schema.sql
	initSchemaSQL string

	//go:embed indexes.sql
	initIndexesSQL string
)
