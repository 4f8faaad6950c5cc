package oncology

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kilimanjaro-oncology/registry/internal/platform/db"
)

type sqliteRepo struct {
	store *db.Store
}

// NewSQLiteRepository returns the Repository backed by the given store.
func NewSQLiteRepository(store *db.Store) Repository {
	return &sqliteRepo{store: store}
}

func (r *sqliteRepo) Save(ctx context.Context, record map[string]string) (int64, error) {
	// The creation timestamp is always the service's, never the caller's.
	data := map[string]string{
		"record_creation_datetime": time.Now().Format(timeLayout),
	}
	for col, keys := range columnKeys {
		data[col] = ""
		for _, key := range keys {
			if v, ok := record[key]; ok {
				data[col] = v
				break
			}
		}
	}

	data["Summary"] = ""
	if patientID := strings.TrimSpace(data["PatientID"]); patientID != "" {
		summary, err := r.composePatientSummary(ctx, patientID, data)
		if err != nil {
			return 0, err
		}
		data["Summary"] = summary
	}

	columns := make([]string, 0, len(data))
	for col := range data {
		if allowedColumns[col] {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return 0, ErrNoColumns
	}
	sort.Strings(columns)

	values := make([]any, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		values[i] = data[col]
		placeholders[i] = "?"
	}

	// Identifiers come only from the allowlist; every value is bound.
	query := "INSERT INTO " + TableName +
		" (" + strings.Join(columns, ", ") + ")" +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	var id int64
	err := r.store.WriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, values...)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoInsertID, err)
		}
		if id == 0 {
			return ErrNoInsertID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *sqliteRepo) Get(ctx context.Context, id int64) (map[string]string, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT * FROM "+TableName+" WHERE "+idColumn+" = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get record %d: %w", id, err)
		}
		return map[string]string{}, nil
	}
	row, err := scanRowMap(rows)
	if err != nil {
		return nil, fmt.Errorf("scan record %d: %w", id, err)
	}
	return row, nil
}

func (r *sqliteRepo) PatientRecords(ctx context.Context, patientID string) ([]map[string]string, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT * FROM "+TableName+
			" WHERE PatientID = ? ORDER BY Event_Date DESC, "+idColumn+" DESC",
		patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient records: %w", err)
	}
	defer rows.Close()

	var records []map[string]string
	for rows.Next() {
		row, err := scanRowMap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient record: %w", err)
		}
		records = append(records, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patient records: %w", err)
	}
	return records, nil
}

func (r *sqliteRepo) Update(ctx context.Context, id int64, fields map[string]string) (bool, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == idColumn {
			// The surrogate id cannot be reassigned.
			continue
		}
		if !allowedColumns[name] {
			// Fail closed rather than silently dropping unknown columns.
			return false, fmt.Errorf("refusing to update unknown column %q: %w",
				name, ErrColumnNotAllowed)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return false, nil
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	values := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets[i] = name + " = ?"
		values = append(values, fields[name])
	}
	values = append(values, id)

	// Safe: the SET clause is built only from allowlisted identifiers.
	query := "UPDATE " + TableName + " SET " + strings.Join(sets, ", ") +
		" WHERE " + idColumn + " = ?"

	var affected int64
	err := r.store.WriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, values...)
		if err != nil {
			return fmt.Errorf("update record %d: %w", id, err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update record %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *sqliteRepo) PatientSummary(ctx context.Context, patientID string) (string, error) {
	var summary string
	err := r.store.DB().QueryRowContext(ctx,
		"SELECT Summary FROM "+TableName+
			" WHERE PatientID = ? ORDER BY Event_Date DESC, "+idColumn+" DESC LIMIT 1",
		patientID).Scan(&summary)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get patient summary: %w", err)
	}
	return summary, nil
}

func (r *sqliteRepo) PatientIDsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT DISTINCT PatientID FROM "+TableName+" WHERE PatientID LIKE ?",
		prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list patient ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan patient id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patient ids: %w", err)
	}
	return ids, nil
}

func (r *sqliteRepo) LatestPatientRecord(ctx context.Context, patientID string) (map[string]string, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT * FROM "+TableName+
			" WHERE PatientID = ? ORDER BY Event_Date DESC, "+idColumn+" DESC LIMIT 1",
		patientID)
	if err != nil {
		return nil, fmt.Errorf("get latest patient record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get latest patient record: %w", err)
		}
		return map[string]string{}, nil
	}
	row, err := scanRowMap(rows)
	if err != nil {
		return nil, fmt.Errorf("scan latest patient record: %w", err)
	}
	return row, nil
}

func (r *sqliteRepo) Settings(ctx context.Context, keys []string) (map[string]string, error) {
	settings := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return settings, nil
	}

	// Only the placeholder count is dynamic here.
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT key, value FROM settings WHERE key IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("fetch settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return settings, nil
}

const summaryColumns = "AutoincrementID, Event_Date, Diagnosis, Histo, Grade, " +
	"Factors, Stage, Careplan, Death_Cause"

// composePatientSummary loads the patient's full history in chronological
// order, merges in the pending row under id 0, and renders the narrative.
// The history read happens before the write lock is taken; the lock covers
// only the insert itself.
func (r *sqliteRepo) composePatientSummary(ctx context.Context, patientID string, pending map[string]string) (string, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT "+summaryColumns+" FROM "+TableName+
			" WHERE PatientID = ? ORDER BY Event_Date ASC, "+idColumn+" ASC",
		patientID)
	if err != nil {
		return "", fmt.Errorf("load patient history: %w", err)
	}
	defer rows.Close()

	var entries []summaryEntry
	for rows.Next() {
		var e summaryEntry
		if err := rows.Scan(&e.ID, &e.EventDate, &e.Diagnosis, &e.Histo,
			&e.Grade, &e.Factors, &e.Stage, &e.Careplan, &e.DeathCause); err != nil {
			return "", fmt.Errorf("scan patient history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate patient history: %w", err)
	}

	entries = append(entries, summaryEntry{
		ID:         0,
		EventDate:  pending["Event_Date"],
		Diagnosis:  pending["Diagnosis"],
		Histo:      pending["Histo"],
		Grade:      pending["Grade"],
		Factors:    pending["Factors"],
		Stage:      pending["Stage"],
		Careplan:   pending["Careplan"],
		DeathCause: pending["Death_Cause"],
	})
	return composeSummary(entries), nil
}

// scanRowMap reads the current row into a map keyed by column name. Every
// value comes back as its string form, including the integer surrogate id.
func scanRowMap(rows *sql.Rows) (map[string]string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]sql.NullString, len(cols))
	dests := make([]any, len(cols))
	for i := range values {
		dests[i] = &values[i]
	}
	if err := rows.Scan(dests...); err != nil {
		return nil, err
	}
	row := make(map[string]string, len(cols))
	for i, col := range cols {
		row[col] = values[i].String
	}
	return row, nil
}
