// Package recorder stores a transcript of debugging sessions in a SQLite
// database. Every payload written to or read from the interpreter is kept
// verbatim together with its offset from the start of the session.
package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	_ "modernc.org/sqlite"
)

// Direction of a recorded payload.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "recv"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session already ended")
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    target TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    ended_at INTEGER
);
CREATE TABLE IF NOT EXISTS events (
    session_id TEXT NOT NULL REFERENCES sessions(id),
    seq INTEGER NOT NULL,
    direction TEXT NOT NULL,
    at_ns INTEGER NOT NULL,
    payload BLOB NOT NULL,
    PRIMARY KEY (session_id, seq)
);`

// SessionInfo describes one recorded session.
type SessionInfo struct {
	ID        string
	Target    string
	StartedAt time.Time
	// EndedAt is zero when the session was never ended cleanly.
	EndedAt time.Time
	Events  int
	Bytes   int64
}

// Event is one recorded payload.
type Event struct {
	Seq       int
	Direction Direction
	// Offset from the session start.
	Offset  time.Duration
	Payload []byte
}

// Recorder owns the transcript database.
type Recorder struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the transcript database at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error: cannot open transcript database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: failed to initialize transcript schema: %w", err)
	}
	return &Recorder{db: db, now: time.Now}, nil
}

// Begin starts a new session against target (usually "host:port").
func (r *Recorder) Begin(target string) (*Session, error) {
	id := uuid.NewString()
	started := r.now()
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, target, started_at) VALUES (?, ?, ?)`,
		id, target, started.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("error: failed to create session: %w", err)
	}
	return &Session{rec: r, id: id, started: started}, nil
}

// Sessions lists recorded sessions, oldest first.
func (r *Recorder) Sessions() ([]SessionInfo, error) {
	rows, err := r.db.Query(`
        SELECT s.id, s.target, s.started_at, s.ended_at,
               COUNT(e.seq), COALESCE(SUM(LENGTH(e.payload)), 0)
        FROM sessions s
        LEFT JOIN events e ON e.session_id = s.id
        GROUP BY s.id
        ORDER BY s.started_at ASC, s.id ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var (
			info    SessionInfo
			started int64
			ended   sql.NullInt64
		)
		if err := rows.Scan(&info.ID, &info.Target, &started, &ended, &info.Events, &info.Bytes); err != nil {
			return nil, fmt.Errorf("error: failed to scan session row: %w", err)
		}
		info.StartedAt = time.Unix(0, started)
		if ended.Valid {
			info.EndedAt = time.Unix(0, ended.Int64)
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate session rows: %w", err)
	}
	return sessions, nil
}

// Events returns the events of session id in recording order.
func (r *Recorder) Events(id string) ([]Event, error) {
	var exists int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("error: failed to look up session: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	rows, err := r.db.Query(
		`SELECT seq, direction, at_ns, payload FROM events WHERE session_id = ? ORDER BY seq ASC`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev  Event
			dir string
			at  int64
		)
		if err := rows.Scan(&ev.Seq, &dir, &at, &ev.Payload); err != nil {
			return nil, fmt.Errorf("error: failed to scan event row: %w", err)
		}
		ev.Direction = Direction(dir)
		ev.Offset = time.Duration(at)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate event rows: %w", err)
	}
	return events, nil
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Session records the payloads of one connection. It satisfies
// pomacli.Tap.
type Session struct {
	rec     *Recorder
	id      string
	started time.Time

	mu    sync.Mutex
	seq   int
	ended bool
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// RecordSent stores a payload written to the interpreter.
func (s *Session) RecordSent(payload []byte) error {
	return s.record(DirectionSent, payload)
}

// RecordReceived stores a payload read from the interpreter.
func (s *Session) RecordReceived(payload []byte) error {
	return s.record(DirectionReceived, payload)
}

func (s *Session) record(dir Direction, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	at := s.rec.now().Sub(s.started)
	if payload == nil {
		payload = []byte{}
	}
	_, err := s.rec.db.Exec(
		`INSERT INTO events (session_id, seq, direction, at_ns, payload) VALUES (?, ?, ?, ?, ?)`,
		s.id, s.seq+1, string(dir), int64(at), payload,
	)
	if err != nil {
		return fmt.Errorf("error: failed to record %s payload: %w", dir, err)
	}
	s.seq++
	return nil
}

// End marks the session finished. Further records fail with ErrSessionEnded.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil
	}
	s.ended = true
	_, err := s.rec.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, s.rec.now().UnixNano(), s.id)
	if err != nil {
		return fmt.Errorf("error: failed to end session: %w", err)
	}
	return nil
}

// Finish ends the session and closes the recorder, combining both errors.
func Finish(s *Session, r *Recorder) error {
	var result *multierror.Error
	if s != nil {
		if err := s.End(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := r.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
