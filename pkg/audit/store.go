// Package audit implements the append-only, hash-chained audit log. Writes
// go to a Postgres primary store and fall back to a JSON-line file when the
// primary is unavailable. Append waits for the primary insert (and, on its
// failure, the fallback write) before it returns.
package audit

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/biomind/repurposing/pkg/domain"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
	"github.com/biomind/repurposing/pkg/resilience"
)

// Store is the Postgres-backed AuditStore with a file fallback.
type Store struct {
	db           *sqlx.DB
	breaker      *resilience.Breaker
	fallbackPath string

	mu     sync.Mutex
	tips   map[string]string
	nextID map[string]int64
}

func NewStore(db *sqlx.DB, breaker *resilience.Breaker, fallbackPath string) *Store {
	return &Store{
		db:           db,
		breaker:      breaker,
		fallbackPath: fallbackPath,
		tips:         map[string]string{},
		nextID:       map[string]int64{},
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	partition_date TEXT NOT NULL,
	event_id BIGINT NOT NULL,
	event_type TEXT NOT NULL,
	user_id TEXT NOT NULL,
	request_id TEXT NOT NULL,
	action TEXT NOT NULL,
	resource TEXT NOT NULL,
	details JSONB NOT NULL,
	self_hash TEXT NOT NULL,
	prev_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (partition_date, event_id)
)`

// EnsureSchema creates the audit_events table if it does not already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return coreerrors.DatabaseError("ensure audit schema on audit_events", err)
	}
	return nil
}

// Append writes ev, populating PartitionDate (if empty), EventID, SelfHash,
// PrevHash, and CreatedAt from the current chain tip, then returns the
// populated event. It tries the primary store first and falls back to the
// JSON-line file on failure.
func (s *Store) Append(ctx context.Context, ev domain.AuditEvent) (domain.AuditEvent, error) {
	if ev.PartitionDate == "" {
		ev.PartitionDate = time.Now().UTC().Format("2006-01-02")
	}

	s.mu.Lock()
	tip, id, err := s.chainState(ctx, ev.PartitionDate)
	if err != nil {
		s.mu.Unlock()
		return domain.AuditEvent{}, err
	}
	ev.PrevHash = tip
	ev.EventID = id
	ev.CreatedAt = time.Now().UTC()
	hash, err := selfHash(ev)
	if err != nil {
		s.mu.Unlock()
		return domain.AuditEvent{}, coreerrors.New(coreerrors.KindInputInvalid, err)
	}
	ev.SelfHash = hash
	s.tips[ev.PartitionDate] = ev.SelfHash
	s.nextID[ev.PartitionDate] = ev.EventID + 1
	s.mu.Unlock()

	if s.breaker != nil {
		_, err = s.breaker.Do(ctx, func(ctx context.Context) (interface{}, error) {
			return nil, s.insertPrimary(ctx, ev)
		})
	} else {
		err = s.insertPrimary(ctx, ev)
	}
	if err != nil {
		if fbErr := s.appendFallback(ev); fbErr != nil {
			return domain.AuditEvent{}, coreerrors.New(coreerrors.KindRepositoryUnavailable,
				fmt.Errorf("primary append failed (%w) and fallback failed (%v)", err, fbErr))
		}
	}
	return ev, nil
}

// chainState returns the current hash-chain tip and next event id for a
// partition, loading it from the primary store (or the fallback file if the
// primary is unreachable) on first use. Caller must hold s.mu.
func (s *Store) chainState(ctx context.Context, partitionDate string) (string, int64, error) {
	if tip, ok := s.tips[partitionDate]; ok {
		return tip, s.nextID[partitionDate], nil
	}
	tip, nextID, err := s.loadTipFromPrimary(ctx, partitionDate)
	if err != nil {
		tip, nextID, err = s.loadTipFromFallback(partitionDate)
		if err != nil {
			return "", 0, err
		}
	}
	s.tips[partitionDate] = tip
	s.nextID[partitionDate] = nextID
	return tip, nextID, nil
}

func (s *Store) loadTipFromPrimary(ctx context.Context, partitionDate string) (string, int64, error) {
	if s.db == nil {
		return "", 0, coreerrors.DatabaseError("load audit chain tip on audit_events", fmt.Errorf("no database configured"))
	}
	var row struct {
		SelfHash string `db:"self_hash"`
		EventID  int64  `db:"event_id"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT self_hash, event_id FROM audit_events WHERE partition_date=$1 ORDER BY event_id DESC LIMIT 1`,
		partitionDate)
	if errors.Is(err, sql.ErrNoRows) {
		return genesisHash(partitionDate), 1, nil
	}
	if err != nil {
		return "", 0, coreerrors.DatabaseError("load audit chain tip on audit_events", err)
	}
	return row.SelfHash, row.EventID + 1, nil
}

func (s *Store) insertPrimary(ctx context.Context, ev domain.AuditEvent) error {
	if s.db == nil {
		return coreerrors.DatabaseError("insert audit event into audit_events", fmt.Errorf("no database configured"))
	}
	detailsJSON, err := jsonAPI.Marshal(ev.Details)
	if err != nil {
		return coreerrors.New(coreerrors.KindInputInvalid, err)
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO audit_events
			(partition_date, event_id, event_type, user_id, request_id, action, resource, details, self_hash, prev_hash, created_at)
		VALUES
			(:partition_date, :event_id, :event_type, :user_id, :request_id, :action, :resource, :details, :self_hash, :prev_hash, :created_at)`,
		map[string]interface{}{
			"partition_date": ev.PartitionDate,
			"event_id":       ev.EventID,
			"event_type":     ev.EventType,
			"user_id":        ev.UserID,
			"request_id":     ev.RequestID,
			"action":         ev.Action,
			"resource":       ev.Resource,
			"details":        detailsJSON,
			"self_hash":      ev.SelfHash,
			"prev_hash":      ev.PrevHash,
			"created_at":     ev.CreatedAt,
		})
	if err != nil {
		return coreerrors.DatabaseError("insert audit event into audit_events", err)
	}
	return nil
}

// fallbackLine is the JSON-line record written to the fallback file; it
// carries the same fields as domain.AuditEvent but with its own tags so the
// on-disk format is decoupled from the domain type's shape.
type fallbackLine struct {
	PartitionDate string                 `json:"partition_date"`
	EventID       int64                  `json:"event_id"`
	EventType     string                 `json:"event_type"`
	UserID        string                 `json:"user_id"`
	RequestID     string                 `json:"request_id"`
	Action        string                 `json:"action"`
	Resource      string                 `json:"resource"`
	Details       map[string]interface{} `json:"details"`
	SelfHash      string                 `json:"self_hash"`
	PrevHash      string                 `json:"prev_hash"`
	CreatedAt     time.Time              `json:"created_at"`
}

func toFallbackLine(ev domain.AuditEvent) fallbackLine {
	return fallbackLine{
		ev.PartitionDate, ev.EventID, ev.EventType, ev.UserID, ev.RequestID,
		ev.Action, ev.Resource, ev.Details, ev.SelfHash, ev.PrevHash, ev.CreatedAt,
	}
}

func (l fallbackLine) toEvent() domain.AuditEvent {
	return domain.AuditEvent{
		PartitionDate: l.PartitionDate,
		EventID:       l.EventID,
		EventType:     l.EventType,
		UserID:        l.UserID,
		RequestID:     l.RequestID,
		Action:        l.Action,
		Resource:      l.Resource,
		Details:       l.Details,
		SelfHash:      l.SelfHash,
		PrevHash:      l.PrevHash,
		CreatedAt:     l.CreatedAt,
	}
}

func (s *Store) appendFallback(ev domain.AuditEvent) error {
	if s.fallbackPath == "" {
		return fmt.Errorf("no fallback path configured")
	}
	f, err := os.OpenFile(s.fallbackPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	line, err := jsonAPI.Marshal(toFallbackLine(ev))
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

func (s *Store) loadTipFromFallback(partitionDate string) (string, int64, error) {
	events, err := s.readFallback(partitionDate, "")
	if err != nil {
		return "", 0, err
	}
	if len(events) == 0 {
		return genesisHash(partitionDate), 1, nil
	}
	last := events[len(events)-1]
	return last.SelfHash, last.EventID + 1, nil
}

// readFallback scans the fallback file for events in partitionDate,
// optionally filtered to a single requestID (empty means all).
func (s *Store) readFallback(partitionDate, requestID string) ([]domain.AuditEvent, error) {
	if s.fallbackPath == "" {
		return nil, nil
	}
	f, err := os.Open(s.fallbackPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []domain.AuditEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line fallbackLine
		if err := jsonAPI.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if partitionDate != "" && line.PartitionDate != partitionDate {
			continue
		}
		if requestID != "" && line.RequestID != requestID {
			continue
		}
		out = append(out, line.toEvent())
	}
	return out, scanner.Err()
}

// ForRequest returns the events recorded for a single request id, reading
// the primary store and falling back to the file when the primary errors.
func (s *Store) ForRequest(ctx context.Context, requestID string) ([]domain.AuditEvent, error) {
	var events []domain.AuditEvent
	fetch := func(ctx context.Context) (interface{}, error) {
		var rows []struct {
			PartitionDate string                 `db:"partition_date"`
			EventID       int64                  `db:"event_id"`
			EventType     string                 `db:"event_type"`
			UserID        string                 `db:"user_id"`
			RequestID     string                 `db:"request_id"`
			Action        string                 `db:"action"`
			Resource      string                 `db:"resource"`
			Details       []byte                 `db:"details"`
			SelfHash      string                 `db:"self_hash"`
			PrevHash      string                 `db:"prev_hash"`
			CreatedAt     time.Time              `db:"created_at"`
		}
		if s.db == nil {
			return nil, fmt.Errorf("no database configured")
		}
		err := s.db.SelectContext(ctx, &rows,
			`SELECT partition_date, event_id, event_type, user_id, request_id, action, resource, details, self_hash, prev_hash, created_at
			 FROM audit_events WHERE request_id=$1 ORDER BY event_id ASC`, requestID)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			var details map[string]interface{}
			_ = jsonAPI.Unmarshal(r.Details, &details)
			events = append(events, domain.AuditEvent{
				PartitionDate: r.PartitionDate, EventID: r.EventID, EventType: r.EventType,
				UserID: r.UserID, RequestID: r.RequestID, Action: r.Action, Resource: r.Resource,
				Details: details, SelfHash: r.SelfHash, PrevHash: r.PrevHash, CreatedAt: r.CreatedAt,
			})
		}
		return nil, nil
	}

	var err error
	if s.breaker != nil {
		_, err = s.breaker.Do(ctx, fetch)
	} else {
		_, err = fetch(ctx)
	}
	if err != nil {
		return s.readFallback("", requestID)
	}
	return events, nil
}

// Verify recomputes the hash chain for a partition and reports the first
// event_id where it diverges, if any.
func (s *Store) Verify(ctx context.Context, partitionDate string) (bool, int64, error) {
	events, err := s.eventsForPartition(ctx, partitionDate)
	if err != nil {
		return false, 0, err
	}
	prev := genesisHash(partitionDate)
	for _, ev := range events {
		if ev.PrevHash != prev {
			return false, ev.EventID, nil
		}
		want, err := selfHash(ev)
		if err != nil {
			return false, ev.EventID, err
		}
		if want != ev.SelfHash {
			return false, ev.EventID, nil
		}
		prev = ev.SelfHash
	}
	return true, 0, nil
}

func (s *Store) eventsForPartition(ctx context.Context, partitionDate string) ([]domain.AuditEvent, error) {
	var events []domain.AuditEvent
	fetch := func(ctx context.Context) (interface{}, error) {
		var rows []struct {
			EventType string                 `db:"event_type"`
			UserID    string                 `db:"user_id"`
			RequestID string                 `db:"request_id"`
			Action    string                 `db:"action"`
			Resource  string                 `db:"resource"`
			Details   []byte                 `db:"details"`
			EventID   int64                  `db:"event_id"`
			SelfHash  string                 `db:"self_hash"`
			PrevHash  string                 `db:"prev_hash"`
			CreatedAt time.Time              `db:"created_at"`
		}
		if s.db == nil {
			return nil, fmt.Errorf("no database configured")
		}
		err := s.db.SelectContext(ctx, &rows,
			`SELECT event_type, user_id, request_id, action, resource, details, event_id, self_hash, prev_hash, created_at
			 FROM audit_events WHERE partition_date=$1 ORDER BY event_id ASC`, partitionDate)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			var details map[string]interface{}
			_ = jsonAPI.Unmarshal(r.Details, &details)
			events = append(events, domain.AuditEvent{
				PartitionDate: partitionDate, EventID: r.EventID, EventType: r.EventType,
				UserID: r.UserID, RequestID: r.RequestID, Action: r.Action, Resource: r.Resource,
				Details: details, SelfHash: r.SelfHash, PrevHash: r.PrevHash, CreatedAt: r.CreatedAt,
			})
		}
		return nil, nil
	}

	var err error
	if s.breaker != nil {
		_, err = s.breaker.Do(ctx, fetch)
	} else {
		_, err = fetch(ctx)
	}
	if err != nil {
		return s.readFallback(partitionDate, "")
	}
	return events, nil
}
