package migrationbot

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// Flip returns the other status. Toggles are reversible indefinitely;
// there is no terminal state.
func (s Status) Flip() Status {
	if s == StatusDone {
		return StatusPending
	}
	return StatusDone
}

// HistoryEntry records one toggle of one task. Entries are append-only
// and stored in chronological order.
type HistoryEntry struct {
	At        time.Time `json:"at"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	NewStatus Status    `json:"new_status"`
}

// Metadata carries the free-form fields shown above the checklist.
type Metadata struct {
	Plan        string `json:"plan,omitempty"`
	RenewalDate string `json:"renewal_date,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Merge overlays the non-empty fields of in onto m. Empty incoming
// values never erase existing ones.
func (m Metadata) Merge(in Metadata) Metadata {
	if in.Plan != "" {
		m.Plan = in.Plan
	}
	if in.RenewalDate != "" {
		m.RenewalDate = in.RenewalDate
	}
	if in.Notes != "" {
		m.Notes = in.Notes
	}
	return m
}

// MessageRef identifies the Slack message a record is rendered into.
// It is set once, when the first message is posted, and never rebound.
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"timestamp"`
}

func (r MessageRef) IsZero() bool {
	return r.ChannelID == "" || r.Timestamp == ""
}

// Record is the persisted checklist state for one migration subject.
type Record struct {
	SubjectKey string
	Metadata   Metadata
	Status     map[string]Status
	History    map[string][]HistoryEntry
	MessageRef MessageRef
}

// TaskStatus returns the stored status for a task; an unset id means
// pending.
func (r *Record) TaskStatus(taskID string) Status {
	if s, ok := r.Status[taskID]; ok && s == StatusDone {
		return StatusDone
	}
	return StatusPending
}

// Complete reports whether every task in def is done.
func (r *Record) Complete(def []TaskDefinition) bool {
	for _, t := range def {
		if r.TaskStatus(t.ID) != StatusDone {
			return false
		}
	}
	return len(def) > 0
}

// LastChange returns the most recent history entry for a task.
func (r *Record) LastChange(taskID string) (HistoryEntry, bool) {
	entries := r.History[taskID]
	if len(entries) == 0 {
		return HistoryEntry{}, false
	}
	return entries[len(entries)-1], true
}

// Clone deep-copies the record so stores can hand out records without
// sharing mutable maps with callers.
func (r *Record) Clone() *Record {
	out := &Record{
		SubjectKey: r.SubjectKey,
		Metadata:   r.Metadata,
		Status:     make(map[string]Status, len(r.Status)),
		History:    make(map[string][]HistoryEntry, len(r.History)),
		MessageRef: r.MessageRef,
	}
	for id, s := range r.Status {
		out.Status[id] = s
	}
	for id, entries := range r.History {
		out.History[id] = append([]HistoryEntry(nil), entries...)
	}
	return out
}
