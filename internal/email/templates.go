package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

// RunDetails describes a finished conversion run.
type RunDetails struct {
	RunID          string
	Town           string
	Source         string
	Succeeded      bool
	Assignments    int64
	UnmatchedSlots int64
	UnmatchedGames int64
	Error          string
	OutputURL      string
	CompletedAt    time.Time
}

func FormatCompletedAt(t time.Time) string {
	if t.IsZero() {
		return "TBD"
	}
	return t.Format("Monday, Jan 2, 2006 3:04 PM MST")
}

// BuildRunNotice renders the completion notice for a run.
func BuildRunNotice(details RunDetails) Message {
	town := strings.TrimSpace(details.Town)
	if town == "" {
		town = "unknown town"
	}
	source := strings.TrimSpace(details.Source)
	if source == "" {
		source = "upload"
	}

	if !details.Succeeded {
		reason := strings.TrimSpace(details.Error)
		if reason == "" {
			reason = "unknown error"
		}
		return Message{
			Subject: fmt.Sprintf("Referee schedule failed - %s", town),
			Body: strings.Join([]string{
				fmt.Sprintf("The referee schedule conversion for %s failed.", town),
				"",
				fmt.Sprintf("Run: %s", details.RunID),
				fmt.Sprintf("Source: %s", source),
				fmt.Sprintf("Finished: %s", FormatCompletedAt(details.CompletedAt)),
				fmt.Sprintf("Error: %s", reason),
			}, "\n"),
		}
	}

	lines := []string{
		fmt.Sprintf("The referee schedule for %s is ready.", town),
		"",
		fmt.Sprintf("Run: %s", details.RunID),
		fmt.Sprintf("Source: %s", source),
		fmt.Sprintf("Finished: %s", FormatCompletedAt(details.CompletedAt)),
		fmt.Sprintf("Assignments: %d", details.Assignments),
	}
	if details.UnmatchedSlots > 0 {
		lines = append(lines, fmt.Sprintf("Town slots without a master game: %d", details.UnmatchedSlots))
	}
	if details.UnmatchedGames > 0 {
		lines = append(lines, fmt.Sprintf("Home games without a town slot: %d", details.UnmatchedGames))
	}
	if url := strings.TrimSpace(details.OutputURL); url != "" {
		lines = append(lines, fmt.Sprintf("Download: %s", url))
	}

	return Message{
		Subject: fmt.Sprintf("Referee schedule ready - %s", town),
		Body:    strings.Join(lines, "\n"),
	}
}
