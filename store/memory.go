// Package store provides the checklist record persistence
// implementations: Postgres for deployments and an in-memory variant
// for tests and local runs. Both implement migrationbot.RecordStore.
package store

import (
	"context"
	"sync"
	"time"

	"migrationbot"
)

var _ migrationbot.RecordStore = (*Memory)(nil)

// Memory is a mutex-guarded in-memory record store. Toggle serializes
// under the lock, so concurrent clicks cannot produce lost updates.
type Memory struct {
	mu        sync.Mutex
	checklist []migrationbot.TaskDefinition
	records   map[string]*migrationbot.Record // subject key -> record
	byRef     map[refKey]string               // message ref -> subject key
}

type refKey struct {
	channelID string
	timestamp string
}

func NewMemory(checklist []migrationbot.TaskDefinition) *Memory {
	return &Memory{
		checklist: checklist,
		records:   make(map[string]*migrationbot.Record),
		byRef:     make(map[refKey]string),
	}
}

func (m *Memory) FindBySubject(_ context.Context, key string) (*migrationbot.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, migrationbot.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) FindByMessageRef(_ context.Context, channelID, timestamp string) (*migrationbot.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.byRefLocked(channelID, timestamp)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

func (m *Memory) Create(_ context.Context, key string, meta migrationbot.Metadata) (*migrationbot.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[key]; ok {
		return nil, migrationbot.ErrRecordExists
	}

	rec := &migrationbot.Record{
		SubjectKey: key,
		Metadata:   meta,
		Status:     initialStatus(m.checklist),
		History:    make(map[string][]migrationbot.HistoryEntry),
	}
	m.records[key] = rec
	return rec.Clone(), nil
}

func (m *Memory) UpdateMetadata(_ context.Context, key string, meta migrationbot.Metadata) (*migrationbot.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, migrationbot.ErrRecordNotFound
	}
	rec.Metadata = rec.Metadata.Merge(meta)
	return rec.Clone(), nil
}

func (m *Memory) SetMessageRef(_ context.Context, key string, ref migrationbot.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return migrationbot.ErrRecordNotFound
	}
	if !rec.MessageRef.IsZero() {
		if rec.MessageRef == ref {
			return nil
		}
		return migrationbot.ErrMessageRefSet
	}
	rec.MessageRef = ref
	m.byRef[refKey{ref.ChannelID, ref.Timestamp}] = key
	return nil
}

func (m *Memory) Toggle(_ context.Context, channelID, timestamp, taskID string, at time.Time, actorID, actorName string) (*migrationbot.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.byRefLocked(channelID, timestamp)
	if err != nil {
		return nil, err
	}

	next := rec.TaskStatus(taskID).Flip()
	rec.Status[taskID] = next
	rec.History[taskID] = append(rec.History[taskID], migrationbot.HistoryEntry{
		At:        at,
		ActorID:   actorID,
		ActorName: actorName,
		NewStatus: next,
	})
	return rec.Clone(), nil
}

func (m *Memory) byRefLocked(channelID, timestamp string) (*migrationbot.Record, error) {
	key, ok := m.byRef[refKey{channelID, timestamp}]
	if !ok {
		return nil, migrationbot.ErrRecordNotFound
	}
	rec, ok := m.records[key]
	if !ok {
		return nil, migrationbot.ErrRecordNotFound
	}
	return rec, nil
}

func initialStatus(checklist []migrationbot.TaskDefinition) map[string]migrationbot.Status {
	status := make(map[string]migrationbot.Status, len(checklist))
	for _, t := range checklist {
		status[t.ID] = migrationbot.StatusPending
	}
	return status
}
