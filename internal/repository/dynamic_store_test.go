package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriport/bgv-api/internal/models"
)

func newDynamicStoreMock(t *testing.T) (*DynamicStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewDynamicStore(sqlxDB, nil), mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestDynamicStoreEnsureTable(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS employment_checks").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureTable(context.Background(), "employment_checks"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDynamicStoreEnsureTableIdempotent(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS employment_checks").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// A concurrent creator won the race; duplicate_table is success.
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS employment_checks").
		WillReturnError(&pq.Error{Code: "42P07"})

	require.NoError(t, store.EnsureTable(context.Background(), "employment_checks"))
	require.NoError(t, store.EnsureTable(context.Background(), "employment_checks"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDynamicStoreEnsureTableRejectsBadName(t *testing.T) {
	store, _, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	assert.Error(t, store.EnsureTable(context.Background(), "employment-checks"))
	assert.Error(t, store.EnsureTable(context.Background(), "cases"))
	assert.Error(t, store.EnsureTable(context.Background(), "x; DROP TABLE cases"))
}

func TestDynamicStoreEnsureColumnsAddsMissing(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs("employment_checks").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("id").AddRow("case_id").AddRow("employer_name"))
	mock.ExpectExec("ALTER TABLE employment_checks ADD COLUMN IF NOT EXISTS designation TEXT").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.EnsureColumns(context.Background(), "employment_checks", []string{"employer_name", "designation"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDynamicStoreEnsureColumnsToleratesDuplicate(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs("employment_checks").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))
	mock.ExpectExec("ALTER TABLE employment_checks ADD COLUMN IF NOT EXISTS designation TEXT").
		WillReturnError(&pq.Error{Code: "42701"})

	err := store.EnsureColumns(context.Background(), "employment_checks", []string{"designation"})
	require.NoError(t, err)
}

func TestDynamicStoreEnsureColumnsSkipsBaseColumns(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs("employment_checks").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	// status and case_id are base columns; no ALTER is issued for them.
	err := store.EnsureColumns(context.Background(), "employment_checks", []string{"status", "case_id"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDynamicStoreEnsureColumnsTrackerStatusIsDynamic(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs(TrackerTable).
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("id").AddRow("case_id").AddRow("branch_id").AddRow("customer_id").
			AddRow("created_at").AddRow("updated_at"))
	// The tracker table carries no status or billing columns, so a main-record
	// field with one of those names must be added like any other.
	mock.ExpectExec("ALTER TABLE client_master_trackers ADD COLUMN IF NOT EXISTS billed_date TEXT").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE client_master_trackers ADD COLUMN IF NOT EXISTS status TEXT").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.EnsureColumns(context.Background(), TrackerTable, []string{"status", "billed_date", "case_id"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDynamicStoreEnsureColumnsRejectsBadField(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs("employment_checks").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	err := store.EnsureColumns(context.Background(), "employment_checks", []string{"bad-column"})
	assert.Error(t, err)
}

func TestDynamicStoreUpsertRecordInsert(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id FROM employment_checks WHERE case_id").
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO employment_checks").
		WithArgs("case-1", "branch-1", "cust-1", int64(7), "Acme Corp").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	trackerID := int64(7)
	id, err := store.UpsertRecord(context.Background(), "employment_checks", models.UpsertSpec{
		CaseID:     "case-1",
		BranchID:   "branch-1",
		CustomerID: "cust-1",
		TrackerID:  &trackerID,
		Fields:     map[string]string{"employer_name": "Acme Corp"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
}

func TestDynamicStoreUpsertRecordTrackerKeepsStatusField(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id FROM client_master_trackers WHERE case_id").
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	// Column order is the fixed keys followed by the sorted dynamic fields;
	// status stays a dynamic field on the tracker table.
	mock.ExpectQuery("INSERT INTO client_master_trackers \\(case_id, branch_id, customer_id, overall_status, status\\)").
		WithArgs("case-1", "branch-1", "cust-1", "wip", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	id, err := store.UpsertRecord(context.Background(), TrackerTable, models.UpsertSpec{
		CaseID:     "case-1",
		BranchID:   "branch-1",
		CustomerID: "cust-1",
		Fields:     map[string]string{"status": "completed", "overall_status": "wip"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDynamicStoreUpsertRecordUpdate(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id FROM employment_checks WHERE case_id").
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec("UPDATE employment_checks SET").
		WithArgs("Acme Corp", "case-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.UpsertRecord(context.Background(), "employment_checks", models.UpsertSpec{
		CaseID:     "case-1",
		BranchID:   "branch-1",
		CustomerID: "cust-1",
		Fields:     map[string]string{"employer_name": "Acme Corp"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
}

func TestDynamicStoreUpsertRecordInsertRaceRetriesAsUpdate(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id FROM employment_checks WHERE case_id").
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO employment_checks").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery("SELECT id FROM employment_checks WHERE case_id").
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec("UPDATE employment_checks SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.UpsertRecord(context.Background(), "employment_checks", models.UpsertSpec{
		CaseID:     "case-1",
		BranchID:   "branch-1",
		CustomerID: "cust-1",
		Fields:     map[string]string{"employer_name": "Acme Corp"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDynamicStoreFetchRecordAbsentIsNotError(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM employment_checks").
		WithArgs("case-404").
		WillReturnRows(sqlmock.NewRows([]string{"id", "case_id"}))

	record, err := store.FetchRecord(context.Background(), "employment_checks", "case-404")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestDynamicStoreFetchRecord(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM employment_checks").
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "case_id", "emp_verification_status"}).
			AddRow(int64(11), "case-1", "completed_green"))

	record, err := store.FetchRecord(context.Background(), "employment_checks", "case-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "completed_green", record.String("emp_verification_status"))
}

func TestDynamicStoreTableExists(t *testing.T) {
	store, mock, cleanup := newDynamicStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("employment_checks").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := store.TableExists(context.Background(), "employment_checks")
	require.NoError(t, err)
	assert.False(t, exists)
}
