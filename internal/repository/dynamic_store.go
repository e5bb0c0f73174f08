package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/veriport/bgv-api/internal/models"
	"github.com/veriport/bgv-api/internal/naming"
)

// TrackerTable is the fixed name of the case extension (CMT) record table.
const TrackerTable = "client_master_trackers"

// Postgres error codes tolerated during concurrent schema evolution.
const (
	pgDuplicateTable  = "42P07"
	pgDuplicateColumn = "42701"
	pgUniqueViolation = "23505"
)

// annexureBaseColumns are present in every annexure table regardless of
// service type. The report compiler and the status aggregator both rely on
// this shape.
var annexureBaseColumns = map[string]struct{}{
	"id":           {},
	"tracker_id":   {},
	"case_id":      {},
	"branch_id":    {},
	"customer_id":  {},
	"status":       {},
	"is_submitted": {},
	"is_billed":    {},
	"billed_date":  {},
	"created_at":   {},
	"updated_at":   {},
}

// trackerBaseColumns is the narrower fixed shape of the tracker table. Its
// DDL carries no status or billing columns, so fields with those names are
// ordinary dynamic columns there.
var trackerBaseColumns = map[string]struct{}{
	"id":          {},
	"case_id":     {},
	"branch_id":   {},
	"customer_id": {},
	"created_at":  {},
	"updated_at":  {},
}

// writableBaseColumns may be set through UpsertRecord even though they are
// part of the fixed annexure shape.
var writableBaseColumns = map[string]struct{}{
	"status":       {},
	"is_submitted": {},
	"is_billed":    {},
	"billed_date":  {},
}

func baseColumnsFor(table string) map[string]struct{} {
	if table == TrackerTable {
		return trackerBaseColumns
	}
	return annexureBaseColumns
}

// DynamicStore provides durable, schema-evolving storage for annexure and
// tracker records. Table and column creation is idempotent and tolerates
// concurrent first-use races.
type DynamicStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewDynamicStore constructs the store.
func NewDynamicStore(db *sqlx.DB, logger *zap.Logger) *DynamicStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DynamicStore{db: db, logger: logger}
}

// EnsureTable idempotently guarantees the named table exists with the fixed
// base-column contract. "Already exists" is success, not failure.
func (s *DynamicStore) EnsureTable(ctx context.Context, table string) error {
	if err := naming.ValidateTable(table); err != nil {
		return fmt.Errorf("ensure table: %w", err)
	}

	var ddl string
	if table == TrackerTable {
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	case_id UUID NOT NULL REFERENCES cases(id),
	branch_id TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (case_id)
)`, table)
	} else {
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	tracker_id BIGINT REFERENCES %s(id),
	case_id UUID NOT NULL REFERENCES cases(id),
	branch_id TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT '',
	is_submitted BOOLEAN NOT NULL DEFAULT FALSE,
	is_billed BOOLEAN NOT NULL DEFAULT FALSE,
	billed_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (case_id)
)`, table, TrackerTable)
	}

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		if isPQError(err, pgDuplicateTable) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// EnsureColumns adds any missing field columns as plain text. Columns added
// concurrently by another caller are not an error.
func (s *DynamicStore) EnsureColumns(ctx context.Context, table string, fields []string) error {
	if err := naming.ValidateTable(table); err != nil {
		return fmt.Errorf("ensure columns: %w", err)
	}
	if len(fields) == 0 {
		return nil
	}

	existing, err := s.columnSet(ctx, table)
	if err != nil {
		return err
	}

	base := baseColumnsFor(table)
	missing := make([]string, 0, len(fields))
	for _, field := range fields {
		if err := naming.Validate(field); err != nil {
			return fmt.Errorf("ensure columns on %s: %w", table, err)
		}
		if _, ok := existing[field]; ok {
			continue
		}
		if _, ok := base[field]; ok {
			continue
		}
		missing = append(missing, field)
	}
	sort.Strings(missing)

	for _, column := range missing {
		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT", table, column)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			if isPQError(err, pgDuplicateColumn) {
				continue
			}
			return fmt.Errorf("add column %s.%s: %w", table, column, err)
		}
	}
	return nil
}

// UpsertRecord inserts or partially updates the record keyed by case id and
// returns its identifier. A duplicate-key race on insert is retried as an
// update.
func (s *DynamicStore) UpsertRecord(ctx context.Context, table string, spec models.UpsertSpec) (int64, error) {
	if err := naming.ValidateTable(table); err != nil {
		return 0, fmt.Errorf("upsert record: %w", err)
	}
	base := baseColumnsFor(table)
	columns := make([]string, 0, len(spec.Fields))
	for column := range spec.Fields {
		if err := naming.Validate(column); err != nil {
			return 0, fmt.Errorf("upsert record on %s: %w", table, err)
		}
		if _, ok := base[column]; ok {
			if _, writable := writableBaseColumns[column]; !writable {
				continue
			}
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var id int64
	query := fmt.Sprintf("SELECT id FROM %s WHERE case_id = $1", table)
	err := s.db.GetContext(ctx, &id, query, spec.CaseID)
	switch {
	case err == nil:
		if err := s.update(ctx, table, spec, columns); err != nil {
			return 0, err
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		id, err = s.insert(ctx, table, spec, columns)
		if err == nil {
			return id, nil
		}
		if !isPQError(err, pgUniqueViolation) {
			return 0, err
		}
		// Lost the insert race; the row exists now, update it instead.
		if err := s.db.GetContext(ctx, &id, query, spec.CaseID); err != nil {
			return 0, fmt.Errorf("reload record %s case %s: %w", table, spec.CaseID, err)
		}
		if err := s.update(ctx, table, spec, columns); err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, fmt.Errorf("lookup record %s case %s: %w", table, spec.CaseID, err)
	}
}

func (s *DynamicStore) insert(ctx context.Context, table string, spec models.UpsertSpec, columns []string) (int64, error) {
	names := []string{"case_id", "branch_id", "customer_id"}
	args := []interface{}{spec.CaseID, spec.BranchID, spec.CustomerID}
	if spec.TrackerID != nil && table != TrackerTable {
		names = append(names, "tracker_id")
		args = append(args, *spec.TrackerID)
	}
	for _, column := range columns {
		names = append(names, column)
		args = append(args, spec.Fields[column])
	}

	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(names, ", "), strings.Join(placeholders, ", "))

	var id int64
	if err := s.db.GetContext(ctx, &id, query, args...); err != nil {
		if isPQError(err, pgUniqueViolation) {
			return 0, err
		}
		return 0, fmt.Errorf("insert record %s case %s: %w", table, spec.CaseID, err)
	}
	return id, nil
}

func (s *DynamicStore) update(ctx context.Context, table string, spec models.UpsertSpec, columns []string) error {
	assignments := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+1)
	for i, column := range columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, spec.Fields[column])
	}
	assignments = append(assignments, "updated_at = NOW()")
	args = append(args, spec.CaseID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE case_id = $%d",
		table, strings.Join(assignments, ", "), len(args))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update record %s case %s: %w", table, spec.CaseID, err)
	}
	return nil
}

// FetchRecord returns the record keyed by case id, or nil when absent.
// Absence is not an error.
func (s *DynamicStore) FetchRecord(ctx context.Context, table, caseID string) (models.DynamicRecord, error) {
	if err := naming.ValidateTable(table); err != nil {
		return nil, fmt.Errorf("fetch record: %w", err)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE case_id = $1", table)
	rows, err := s.db.QueryxContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("fetch record %s case %s: %w", table, caseID, err)
	}
	defer rows.Close() //nolint:errcheck

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("fetch record %s case %s: %w", table, caseID, err)
		}
		return nil, nil
	}

	record := make(models.DynamicRecord)
	if err := rows.MapScan(record); err != nil {
		return nil, fmt.Errorf("scan record %s case %s: %w", table, caseID, err)
	}
	return record, nil
}

// TableExists reports whether the named table is present.
func (s *DynamicStore) TableExists(ctx context.Context, table string) (bool, error) {
	if err := naming.ValidateTable(table); err != nil {
		return false, fmt.Errorf("table exists: %w", err)
	}
	const query = `SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`
	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, table); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return exists, nil
}

func (s *DynamicStore) columnSet(ctx context.Context, table string) (map[string]struct{}, error) {
	const query = `SELECT column_name FROM information_schema.columns
WHERE table_schema = 'public' AND table_name = $1`
	var names []string
	if err := s.db.SelectContext(ctx, &names, query, table); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set, nil
}

func isPQError(err error, codes ...string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	for _, code := range codes {
		if string(pqErr.Code) == code {
			return true
		}
	}
	return false
}
