package migrationbot

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/slack-go/slack"
)

const (
	labelMarkDone = "Marcar hecho"
	labelReopen   = "Reabrir"
	unspecified   = "sin especificar"

	completionBanner = ":tada: *Migración completada!* Todos los pasos están hechos."
)

// Render maps a checklist record to the Slack message body: one header
// block per metadata field, one row with a toggle button per task, an
// attribution line under toggled tasks, and a completion banner once
// every task is done.
//
// Render is pure: it performs no I/O and produces identical blocks for
// identical inputs (now is passed in for the relative-time lines).
func Render(def []TaskDefinition, rec *Record, now time.Time) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*Checklist de migración para el cliente:* %s", rec.SubjectKey), false, false),
			nil, nil),
		metadataBlock(":clipboard:", "Plan", rec.Metadata.Plan),
		metadataBlock(":calendar:", "Renovación", rec.Metadata.RenewalDate),
	}

	if rec.Metadata.Notes != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf(":round_pushpin: *Notas adicionales:*\n%s", rec.Metadata.Notes), false, false),
			nil, nil))
	}

	blocks = append(blocks, slack.NewDividerBlock())

	for _, task := range def {
		blocks = append(blocks, taskRow(task, rec.TaskStatus(task.ID)))
		if entry, ok := rec.LastChange(task.ID); ok {
			blocks = append(blocks, attributionLine(task.ID, entry, now))
		}
	}

	// Evaluated on the state being rendered, so the banner appears on
	// the render that completes the checklist and stays while complete.
	if rec.Complete(def) {
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, completionBanner, false, false),
				nil, nil))
	}

	return blocks
}

// FallbackText is the plain-text summary Slack shows in notifications.
func FallbackText(rec *Record) string {
	return fmt.Sprintf("Checklist migración para %s", rec.SubjectKey)
}

func metadataBlock(emoji, label, value string) slack.Block {
	if value == "" {
		value = unspecified
	}
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("%s *%s:* %s", emoji, label, value), false, false),
		nil, nil)
}

// taskRow renders one task with a button whose label and style always
// describe the next action, never the current state.
func taskRow(task TaskDefinition, status Status) slack.Block {
	text := task.Text
	label := labelMarkDone
	style := slack.StylePrimary
	if status == StatusDone {
		text = ":white_check_mark: ~" + task.Text + "~"
		label = labelReopen
		style = slack.StyleDanger
	}

	button := slack.NewButtonBlockElement(task.ID, string(status.Flip()),
		slack.NewTextBlockObject(slack.PlainTextType, label, true, false))
	button.Style = style

	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil,
		slack.NewAccessory(button))
}

func attributionLine(taskID string, entry HistoryEntry, now time.Time) slack.Block {
	name := entry.ActorName
	if name == "" {
		name = UnknownUser
	}
	return slack.NewContextBlock("attribution_"+taskID,
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("por %s, %s", name, humanize.RelTime(entry.At, now, "ago", "from now")), false, false))
}
