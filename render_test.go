package migrationbot

import (
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTasks = []TaskDefinition{
	{ID: "migrate_tours", Text: "Migrar tours"},
	{ID: "prepare_subscription", Text: "Dejar suscripción preparada"},
	{ID: "cancel_subscriptions", Text: "Cancelar suscripción"},
}

func testRecord(status map[string]Status) *Record {
	if status == nil {
		status = make(map[string]Status)
	}
	return &Record{
		SubjectKey: "a@x.com",
		Metadata:   Metadata{Plan: "Pro"},
		Status:     status,
		History:    make(map[string][]HistoryEntry),
	}
}

// taskRows extracts the section blocks that carry a toggle button, in
// render order.
func taskRows(blocks []slack.Block) []*slack.SectionBlock {
	var rows []*slack.SectionBlock
	for _, b := range blocks {
		section, ok := b.(*slack.SectionBlock)
		if !ok || section.Accessory == nil || section.Accessory.ButtonElement == nil {
			continue
		}
		rows = append(rows, section)
	}
	return rows
}

func hasBanner(blocks []slack.Block) bool {
	for _, b := range blocks {
		section, ok := b.(*slack.SectionBlock)
		if ok && section.Accessory == nil && section.Text != nil &&
			section.Text.Text == completionBanner {
			return true
		}
	}
	return false
}

func TestRenderRowsAndBanner(t *testing.T) {
	tests := []struct {
		name       string
		status     map[string]Status
		wantBanner bool
	}{
		{name: "all pending", status: nil, wantBanner: false},
		{name: "one done", status: map[string]Status{"migrate_tours": StatusDone}, wantBanner: false},
		{
			name: "all done",
			status: map[string]Status{
				"migrate_tours":        StatusDone,
				"prepare_subscription": StatusDone,
				"cancel_subscriptions": StatusDone,
			},
			wantBanner: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := Render(testTasks, testRecord(tt.status), time.Now())

			rows := taskRows(blocks)
			require.Len(t, rows, len(testTasks), "exactly one row per task")
			for i, row := range rows {
				assert.Equal(t, testTasks[i].ID, row.Accessory.ButtonElement.ActionID, "rows keep definition order")
			}
			assert.Equal(t, tt.wantBanner, hasBanner(blocks))
		})
	}
}

func TestRenderToggleButtonFlipsAction(t *testing.T) {
	rec := testRecord(map[string]Status{"migrate_tours": StatusDone})
	rows := taskRows(Render(testTasks, rec, time.Now()))
	require.Len(t, rows, 3)

	done := rows[0].Accessory.ButtonElement
	assert.Equal(t, string(StatusPending), done.Value, "next action reopens a done task")
	assert.Equal(t, labelReopen, done.Text.Text)
	assert.Equal(t, slack.StyleDanger, done.Style)

	pending := rows[1].Accessory.ButtonElement
	assert.Equal(t, string(StatusDone), pending.Value, "next action completes a pending task")
	assert.Equal(t, labelMarkDone, pending.Text.Text)
	assert.Equal(t, slack.StylePrimary, pending.Style)
}

func TestRenderAttribution(t *testing.T) {
	now := time.Now()
	rec := testRecord(map[string]Status{"migrate_tours": StatusDone})
	rec.History["migrate_tours"] = []HistoryEntry{
		{At: now.Add(-time.Hour), ActorName: "Annamaria", NewStatus: StatusDone},
		{At: now.Add(-5 * time.Minute), ActorName: "Kevin", NewStatus: StatusPending},
	}

	var contexts []*slack.ContextBlock
	for _, b := range Render(testTasks, rec, now) {
		if cb, ok := b.(*slack.ContextBlock); ok {
			contexts = append(contexts, cb)
		}
	}
	require.Len(t, contexts, 1, "only toggled tasks get an attribution line")

	text := contexts[0].ContextElements.Elements[0].(*slack.TextBlockObject).Text
	assert.Contains(t, text, "Kevin", "attribution uses the latest entry only")
	assert.Contains(t, text, "5 minutes ago")
	assert.NotContains(t, text, "Annamaria")
}

func TestRenderMetadata(t *testing.T) {
	now := time.Now()

	rec := testRecord(nil)
	rec.Metadata = Metadata{Plan: "Pro"}
	texts := sectionTexts(Render(testTasks, rec, now))
	assert.Contains(t, texts, ":clipboard: *Plan:* Pro")
	assert.Contains(t, texts, ":calendar: *Renovación:* "+unspecified)
	for _, s := range texts {
		assert.NotContains(t, s, "Notas", "empty notes are omitted entirely")
	}

	rec.Metadata.Notes = "migrar antes del viernes"
	texts = sectionTexts(Render(testTasks, rec, now))
	assert.Contains(t, texts, ":round_pushpin: *Notas adicionales:*\nmigrar antes del viernes")
}

func TestRenderIsPure(t *testing.T) {
	now := time.Now()
	rec := testRecord(map[string]Status{"migrate_tours": StatusDone})
	rec.History["migrate_tours"] = []HistoryEntry{{At: now.Add(-time.Minute), ActorName: "Kevin", NewStatus: StatusDone}}

	assert.Equal(t, Render(testTasks, rec, now), Render(testTasks, rec, now))
}

func sectionTexts(blocks []slack.Block) []string {
	var texts []string
	for _, b := range blocks {
		if section, ok := b.(*slack.SectionBlock); ok && section.Text != nil {
			texts = append(texts, section.Text.Text)
		}
	}
	return texts
}
