package oncology

import (
	"context"
	"fmt"
	"regexp"
)

// maxSettingKeys caps a single settings lookup.
const maxSettingKeys = 500

// settingKeyPattern is defense in depth: values are always parameterized
// and only the placeholder count is dynamic, but keys are still held to a
// restrictive identifier shape.
var settingKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// Service is the record controller: the thin query façade the data-entry
// screens talk to, with its own input hygiene layered over the repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FetchSettings returns key→value for each requested setting. An empty key
// list short-circuits without touching storage. Oversized batches and
// malformed keys are rejected before any query is issued.
func (s *Service) FetchSettings(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	if len(keys) > maxSettingKeys {
		return nil, fmt.Errorf("%w: %d exceeds limit of %d",
			ErrTooManyKeys, len(keys), maxSettingKeys)
	}
	for _, key := range keys {
		if !settingKeyPattern.MatchString(key) {
			return nil, fmt.Errorf("%w: %q", ErrBadSettingKey, key)
		}
	}
	return s.repo.Settings(ctx, keys)
}

// FetchPatientIDs returns the distinct patient ids starting with prefix.
// Unescaped % and _ in prefix act as SQL wildcards.
func (s *Service) FetchPatientIDs(ctx context.Context, prefix string) ([]string, error) {
	return s.repo.PatientIDsByPrefix(ctx, prefix)
}

// FetchPatientData returns the most recent record for the patient, or an
// empty map when the patient has none.
func (s *Service) FetchPatientData(ctx context.Context, patientID string) (map[string]string, error) {
	return s.repo.LatestPatientRecord(ctx, patientID)
}

// SaveRecord persists a new event given as a logical-key mapping and
// returns its surrogate id.
func (s *Service) SaveRecord(ctx context.Context, record map[string]string) (int64, error) {
	return s.repo.Save(ctx, record)
}

// SaveEvent persists a structured event by converting it to its mapping
// view first.
func (s *Service) SaveEvent(ctx context.Context, event *PatientEvent) (int64, error) {
	return s.repo.Save(ctx, event.Fields())
}

// FetchPatientSummary returns the latest cumulative summary for a patient.
func (s *Service) FetchPatientSummary(ctx context.Context, patientID string) (string, error) {
	return s.repo.PatientSummary(ctx, patientID)
}
