package migrationbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFlip(t *testing.T) {
	assert.Equal(t, StatusDone, StatusPending.Flip())
	assert.Equal(t, StatusPending, StatusDone.Flip())
	assert.Equal(t, StatusDone, Status("").Flip(), "unknown status counts as pending")
}

func TestMetadataMerge(t *testing.T) {
	old := Metadata{Plan: "Pro", Notes: "VIP"}

	merged := old.Merge(Metadata{Plan: "", RenewalDate: "2026-10-01"})
	assert.Equal(t, "Pro", merged.Plan, "empty incoming value keeps the old one")
	assert.Equal(t, "2026-10-01", merged.RenewalDate)
	assert.Equal(t, "VIP", merged.Notes)

	merged = old.Merge(Metadata{Plan: "Enterprise"})
	assert.Equal(t, "Enterprise", merged.Plan, "non-empty incoming value wins")
}

func TestRecordComplete(t *testing.T) {
	def := []TaskDefinition{{ID: "a"}, {ID: "b"}}

	rec := &Record{Status: map[string]Status{"a": StatusDone}}
	assert.False(t, rec.Complete(def))

	rec.Status["b"] = StatusDone
	assert.True(t, rec.Complete(def))

	assert.False(t, rec.Complete(nil), "an empty checklist is never complete")
}

func TestTaskStatusDefaultsToPending(t *testing.T) {
	rec := &Record{}
	assert.Equal(t, StatusPending, rec.TaskStatus("never_touched"))
}
