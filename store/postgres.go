package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"migrationbot"
)

const checklistTable = "migration_checklists"

// pgUniqueViolation is the Postgres error code for duplicate keys.
const pgUniqueViolation = "23505"

var _ migrationbot.RecordStore = (*Postgres)(nil)

// Postgres persists checklist records in a single table with JSONB
// status/history/metadata columns (the Supabase schema).
type Postgres struct {
	pool      *pgxpool.Pool
	checklist []migrationbot.TaskDefinition
}

func NewPostgres(pool *pgxpool.Pool, checklist []migrationbot.TaskDefinition) *Postgres {
	return &Postgres{pool: pool, checklist: checklist}
}

// EnsureSchema creates the checklist table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + checklistTable + ` (
    subject_key TEXT PRIMARY KEY,
    metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
    status      JSONB NOT NULL DEFAULT '{}'::jsonb,
    history     JSONB NOT NULL DEFAULT '{}'::jsonb,
    channel_id  TEXT NOT NULL DEFAULT '',
    message_ts  TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + checklistTable + `_message
    ON ` + checklistTable + ` (channel_id, message_ts) WHERE message_ts <> ''`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure checklist schema: %w", err)
		}
	}
	return nil
}

const recordColumns = `subject_key, metadata, status, history, channel_id, message_ts`

func (s *Postgres) FindBySubject(ctx context.Context, key string) (*migrationbot.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM `+checklistTable+` WHERE subject_key = $1`, key)
	return scanRecord(row)
}

func (s *Postgres) FindByMessageRef(ctx context.Context, channelID, timestamp string) (*migrationbot.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM `+checklistTable+` WHERE channel_id = $1 AND message_ts = $2`,
		channelID, timestamp)
	return scanRecord(row)
}

func (s *Postgres) Create(ctx context.Context, key string, meta migrationbot.Metadata) (*migrationbot.Record, error) {
	rec := &migrationbot.Record{
		SubjectKey: key,
		Metadata:   meta,
		Status:     initialStatus(s.checklist),
		History:    make(map[string][]migrationbot.HistoryEntry),
	}

	metaJSON, statusJSON, historyJSON, err := marshalRecord(rec)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+checklistTable+` (subject_key, metadata, status, history) VALUES ($1, $2, $3, $4)`,
		key, metaJSON, statusJSON, historyJSON)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, migrationbot.ErrRecordExists
		}
		return nil, fmt.Errorf("create record %q: %w", key, err)
	}
	return rec, nil
}

func (s *Postgres) UpdateMetadata(ctx context.Context, key string, meta migrationbot.Metadata) (*migrationbot.Record, error) {
	var rec *migrationbot.Record
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+recordColumns+` FROM `+checklistTable+` WHERE subject_key = $1 FOR UPDATE`, key)
		cur, err := scanRecord(row)
		if err != nil {
			return err
		}

		cur.Metadata = cur.Metadata.Merge(meta)
		metaJSON, err := json.Marshal(cur.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE `+checklistTable+` SET metadata = $2, updated_at = now() WHERE subject_key = $1`,
			key, metaJSON); err != nil {
			return fmt.Errorf("update metadata %q: %w", key, err)
		}
		rec = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Postgres) SetMessageRef(ctx context.Context, key string, ref migrationbot.MessageRef) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+checklistTable+` SET channel_id = $2, message_ts = $3, updated_at = now()
     WHERE subject_key = $1 AND message_ts = ''`,
		key, ref.ChannelID, ref.Timestamp)
	if err != nil {
		return fmt.Errorf("set message ref %q: %w", key, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// No row updated: the record is missing or already bound.
	cur, err := s.FindBySubject(ctx, key)
	if err != nil {
		return err
	}
	if cur.MessageRef == ref {
		return nil
	}
	return migrationbot.ErrMessageRefSet
}

// Toggle flips one task inside a transaction. The row lock serializes
// concurrent clicks on the same message.
func (s *Postgres) Toggle(ctx context.Context, channelID, timestamp, taskID string, at time.Time, actorID, actorName string) (*migrationbot.Record, error) {
	var rec *migrationbot.Record
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+recordColumns+` FROM `+checklistTable+` WHERE channel_id = $1 AND message_ts = $2 FOR UPDATE`,
			channelID, timestamp)
		cur, err := scanRecord(row)
		if err != nil {
			return err
		}

		next := cur.TaskStatus(taskID).Flip()
		cur.Status[taskID] = next
		cur.History[taskID] = append(cur.History[taskID], migrationbot.HistoryEntry{
			At:        at,
			ActorID:   actorID,
			ActorName: actorName,
			NewStatus: next,
		})

		_, statusJSON, historyJSON, err := marshalRecord(cur)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE `+checklistTable+` SET status = $2, history = $3, updated_at = now() WHERE subject_key = $1`,
			cur.SubjectKey, statusJSON, historyJSON); err != nil {
			return fmt.Errorf("toggle %q on %q: %w", taskID, cur.SubjectKey, err)
		}
		rec = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Postgres) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanRecord(row pgx.Row) (*migrationbot.Record, error) {
	var (
		rec         migrationbot.Record
		metaJSON    []byte
		statusJSON  []byte
		historyJSON []byte
	)
	err := row.Scan(&rec.SubjectKey, &metaJSON, &statusJSON, &historyJSON,
		&rec.MessageRef.ChannelID, &rec.MessageRef.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, migrationbot.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	if err := json.Unmarshal(metaJSON, &rec.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if err := json.Unmarshal(statusJSON, &rec.Status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &rec.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if rec.Status == nil {
		rec.Status = make(map[string]migrationbot.Status)
	}
	if rec.History == nil {
		rec.History = make(map[string][]migrationbot.HistoryEntry)
	}
	return &rec, nil
}

func marshalRecord(rec *migrationbot.Record) (metaJSON, statusJSON, historyJSON []byte, err error) {
	if metaJSON, err = json.Marshal(rec.Metadata); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if statusJSON, err = json.Marshal(rec.Status); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal status: %w", err)
	}
	if historyJSON, err = json.Marshal(rec.History); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal history: %w", err)
	}
	return metaJSON, statusJSON, historyJSON, nil
}
