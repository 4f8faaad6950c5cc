package oncology

import (
	"strconv"
	"time"
)

// timeLayout matches the second-resolution ISO-8601 form the registry
// stores. Event_Date sorts lexically, so chronological order falls out of
// string comparison.
const timeLayout = "2006-01-02T15:04:05"

// PatientEvent is the structured view of one clinical event row: a new
// diagnosis, a follow-up/management entry, or a death. The persistence
// layer works on the mapping view (Fields); this type exists so callers
// with typed data don't hand-build maps.
type PatientEvent struct {
	AutoincrementID int64
	PatientID       string
	Event           string
	Diagnosis       string
	Histo           string
	Grade           string
	Factors         string
	Stage           string
	Careplan        string
	Summary         string
	Note            string
	RecordCreated   time.Time
	EventDate       time.Time
	DeathDate       *time.Time
	DeathCause      string
}

// NewPatientEvent returns an event with both timestamps set to now.
func NewPatientEvent() *PatientEvent {
	now := time.Now()
	return &PatientEvent{RecordCreated: now, EventDate: now}
}

// Fields converts the event to the logical-key mapping the persistence
// service accepts. Timestamps become ISO strings; a nil death date becomes
// the empty string.
func (e *PatientEvent) Fields() map[string]string {
	deathDate := ""
	if e.DeathDate != nil {
		deathDate = e.DeathDate.Format(timeLayout)
	}
	return map[string]string{
		"patient_id":  e.PatientID,
		"event":       e.Event,
		"event_date":  e.EventDate.Format(timeLayout),
		"diagnosis":   e.Diagnosis,
		"histo":       e.Histo,
		"grade":       e.Grade,
		"factors":     e.Factors,
		"stage":       e.Stage,
		"careplan":    e.Careplan,
		"note":        e.Note,
		"death_date":  deathDate,
		"death_cause": e.DeathCause,
	}
}

// EventFromRow rebuilds a structured event from a stored row keyed by
// canonical column names. Unparseable timestamps fall back to now (or nil
// for the death date) rather than failing, matching the tolerant read path
// the data-entry screens rely on.
func EventFromRow(row map[string]string) *PatientEvent {
	e := NewPatientEvent()
	if t, ok := parseEventTime(row["record_creation_datetime"]); ok {
		e.RecordCreated = t
	}
	if t, ok := parseEventTime(row["Event_Date"]); ok {
		e.EventDate = t
	}
	if t, ok := parseEventTime(row["Death_Date"]); ok {
		e.DeathDate = &t
	}
	if id, err := strconv.ParseInt(row[idColumn], 10, 64); err == nil {
		e.AutoincrementID = id
	}
	e.PatientID = row["PatientID"]
	e.Event = row["Event"]
	e.Diagnosis = row["Diagnosis"]
	e.Histo = row["Histo"]
	e.Grade = row["Grade"]
	e.Factors = row["Factors"]
	e.Stage = row["Stage"]
	e.Careplan = row["Careplan"]
	e.Summary = row["Summary"]
	e.Note = row["Note"]
	e.DeathCause = row["Death_Cause"]
	return e
}

// parseEventTime accepts the stored second-resolution form and the bare
// date form the UI layer sometimes supplies.
func parseEventTime(s string) (time.Time, bool) {
	for _, layout := range []string{timeLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
