package oncology

// TableName is the only table this package writes event rows to.
const TableName = "oncology_data"

// idColumn is the surrogate key. It is assigned by the storage engine and
// can never be written by callers.
const idColumn = "AutoincrementID"

// allowedColumns is the single source of truth for identifiers that may
// appear in generated INSERT/UPDATE statements. Values are always bound
// parameters regardless of origin; only names from this set (or fixed
// literals) are ever interpolated into SQL text.
var allowedColumns = map[string]bool{
	"record_creation_datetime": true,
	"PatientID":                true,
	"Event":                    true,
	"Event_Date":               true,
	"Diagnosis":                true,
	"Histo":                    true,
	"Grade":                    true,
	"Factors":                  true,
	"Stage":                    true,
	"Careplan":                 true,
	"Summary":                  true,
	"Note":                     true,
	"Death_Date":               true,
	"Death_Cause":              true,
}

// columnKeys maps each canonical storage column to the logical record keys
// that may supply it. The insert path fills any column with no matching key
// with the empty string, never NULL.
var columnKeys = map[string][]string{
	"PatientID":   {"patient_id"},
	"Event":       {"event"},
	"Event_Date":  {"event_date"},
	"Diagnosis":   {"diagnosis"},
	"Histo":       {"histo"},
	"Grade":       {"grade"},
	"Factors":     {"factors"},
	"Stage":       {"stage"},
	"Careplan":    {"careplan"},
	"Note":        {"note"},
	"Death_Date":  {"death_date"},
	"Death_Cause": {"death_cause"},
}

// ColumnAllowed reports whether the named column may be written.
func ColumnAllowed(name string) bool {
	return allowedColumns[name]
}
