package oncology

import (
	"sort"
	"strings"
)

// summaryEntry is the slice of an event row the narrative fold consumes.
// The pending (not yet saved) entry carries id 0, which sorts ahead of
// every real row sharing its date; assigned ids start at 1.
type summaryEntry struct {
	ID         int64
	EventDate  string
	Diagnosis  string
	Histo      string
	Grade      string
	Factors    string
	Stage      string
	Careplan   string
	DeathCause string
}

// composeSummary folds an unordered set of entries into the cumulative
// narrative: one block per event in (Event_Date, id) ascending order,
// blocks joined by newlines. The fold is recomputed from full history on
// every save; there is no incremental state to drift.
func composeSummary(entries []summaryEntry) string {
	sorted := make([]summaryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EventDate != sorted[j].EventDate {
			return sorted[i].EventDate < sorted[j].EventDate
		}
		return sorted[i].ID < sorted[j].ID
	})

	blocks := make([]string, len(sorted))
	for i, e := range sorted {
		blocks[i] = summaryBlock(e)
	}
	return strings.Join(blocks, "\n")
}

// summaryBlock renders one event: a header of the date and the comma-joined
// non-empty descriptive fields, then an indented Treatment line when a care
// plan is recorded and an indented Death line when a cause of death is.
func summaryBlock(e summaryEntry) string {
	date := displayDate(e.EventDate)
	if date == "" {
		date = "unknown-date"
	}

	var pieces []string
	if v := strings.TrimSpace(e.Diagnosis); v != "" {
		pieces = append(pieces, v)
	}
	if v := strings.TrimSpace(e.Histo); v != "" {
		pieces = append(pieces, v)
	}
	if v := strings.TrimSpace(e.Grade); v != "" {
		pieces = append(pieces, "G"+v)
	}
	if v := strings.TrimSpace(e.Factors); v != "" {
		pieces = append(pieces, v)
	}
	if v := strings.TrimSpace(e.Stage); v != "" {
		pieces = append(pieces, v)
	}

	line := date + ":"
	if len(pieces) > 0 {
		line += " " + strings.Join(pieces, ", ")
	}

	var extras []string
	if v := strings.TrimSpace(e.Careplan); v != "" {
		extras = append(extras, "  Treatment - "+v)
	}
	if v := strings.TrimSpace(e.DeathCause); v != "" {
		extras = append(extras, "  Death - "+v)
	}
	if len(extras) > 0 {
		return line + "\n" + strings.Join(extras, "\n")
	}
	return line
}

// displayDate truncates an ISO timestamp to its date portion.
func displayDate(value string) string {
	text := strings.TrimSpace(value)
	if text == "" {
		return ""
	}
	return strings.SplitN(text, "T", 2)[0]
}
