package oncology

import "context"

// Repository is the persistence surface for patient events and settings.
// Rows are created only by Save and modified only by Update; nothing
// deletes them.
type Repository interface {
	// Save inserts one event assembled from logical field names, computes
	// and stores the cumulative patient summary, and returns the assigned
	// surrogate id.
	Save(ctx context.Context, record map[string]string) (int64, error)

	// Get returns the row with the given surrogate id keyed by canonical
	// column names, or an empty map when no such row exists.
	Get(ctx context.Context, id int64) (map[string]string, error)

	// PatientRecords returns every row for a patient, most recent event
	// first (Event_Date descending, surrogate id breaking ties).
	PatientRecords(ctx context.Context, patientID string) ([]map[string]string, error)

	// Update applies the given canonical-column fields to one row. The
	// surrogate id field is ignored; any other unknown column rejects the
	// whole update. Reports whether a row was changed. Never recomputes
	// the stored summary.
	Update(ctx context.Context, id int64, fields map[string]string) (bool, error)

	// PatientSummary returns the stored summary of the patient's most
	// recent row, or "" when the patient has none.
	PatientSummary(ctx context.Context, patientID string) (string, error)

	// PatientIDsByPrefix returns the distinct patient ids starting with
	// prefix. Unescaped % and _ in prefix act as SQL wildcards.
	PatientIDsByPrefix(ctx context.Context, prefix string) ([]string, error)

	// LatestPatientRecord returns the patient's most recent row, or an
	// empty map when the patient has none.
	LatestPatientRecord(ctx context.Context, patientID string) (map[string]string, error)

	// Settings returns key→value for each requested settings key that
	// exists.
	Settings(ctx context.Context, keys []string) (map[string]string, error)
}
