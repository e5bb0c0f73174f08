package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriport/bgv-api/internal/models"
)

type annexureStoreStub struct {
	tables  map[string]bool
	records map[string]models.DynamicRecord
}

func (s *annexureStoreStub) TableExists(ctx context.Context, table string) (bool, error) {
	return s.tables[table], nil
}

func (s *annexureStoreStub) FetchRecord(ctx context.Context, table, caseID string) (models.DynamicRecord, error) {
	record, ok := s.records[table]
	if !ok {
		return nil, nil
	}
	return record, nil
}

type schemaStoreStub struct {
	schemas map[string]*models.ServiceFormSchema
}

func (s *schemaStoreStub) GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceFormSchema, error) {
	schema, ok := s.schemas[serviceID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return schema, nil
}

func newStatusFixture(tables map[string]bool, records map[string]models.DynamicRecord) *StatusService {
	schemas := &schemaStoreStub{schemas: map[string]*models.ServiceFormSchema{
		"emp": {ServiceID: "emp", DBTable: "employment_checks"},
		"adr": {ServiceID: "adr", DBTable: "address_checks"},
		"edu": {ServiceID: "edu", DBTable: "education_checks"},
	}}
	return NewStatusService(&annexureStoreStub{tables: tables, records: records}, schemas, nil)
}

func trackedCase(overall string, isVerify models.VerifyFlag, services ...string) *models.Case {
	kase := &models.Case{ID: "case-1", OverallStatus: overall, IsVerify: isVerify}
	kase.SetServiceIDs(services)
	return kase
}

func TestAggregateVerdict(t *testing.T) {
	tests := []struct {
		name     string
		overall  models.AnnexureStatus
		isVerify models.VerifyFlag
		allMatch bool
		want     models.Verdict
	}{
		{"completed and verified yes", models.StatusCompleted, models.VerifyYes, true, models.VerdictFinalYes},
		{"completed color and verified yes", models.StatusCompletedGreen, models.VerifyYes, false, models.VerdictFinalYes},
		{"completed and verified no", models.StatusCompleted, models.VerifyNo, true, models.VerdictFinalNo},
		{"completed unverified", models.StatusCompleted, models.VerifyUnset, false, models.VerdictReadyForReport},
		{"wip but all services matched", models.StatusWIP, models.VerifyUnset, true, models.VerdictReadyForReport},
		{"wip and unmatched", models.StatusWIP, models.VerifyUnset, false, models.VerdictNotReady},
		{"insuff and unmatched", models.StatusInsuff, models.VerifyYes, false, models.VerdictNotReady},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AggregateVerdict(tc.overall, tc.isVerify, tc.allMatch))
		})
	}
}

func TestVerdictAllServicesCompletedColors(t *testing.T) {
	svc := newStatusFixture(
		map[string]bool{"employment_checks": true, "address_checks": true},
		map[string]models.DynamicRecord{
			"employment_checks": {"emp_verification_status": "completed_green"},
			"address_checks":    {"adr_color_code": "COMPLETED_ORANGE"},
		},
	)

	verdict, err := svc.Verdict(context.Background(), trackedCase("wip", models.VerifyUnset, "emp", "adr"))
	require.NoError(t, err)
	assert.Equal(t, models.VerdictReadyForReport, verdict)
}

func TestVerdictOneServiceNotCompleted(t *testing.T) {
	svc := newStatusFixture(
		map[string]bool{"employment_checks": true, "address_checks": true},
		map[string]models.DynamicRecord{
			"employment_checks": {"emp_verification_status": "completed_green"},
			"address_checks":    {"adr_verification_status": "insuff"},
		},
	)

	verdict, err := svc.Verdict(context.Background(), trackedCase("wip", models.VerifyUnset, "emp", "adr"))
	require.NoError(t, err)
	assert.Equal(t, models.VerdictNotReady, verdict)
}

func TestVerdictMissingTableMatchesVacuously(t *testing.T) {
	svc := newStatusFixture(
		map[string]bool{"employment_checks": true},
		map[string]models.DynamicRecord{
			"employment_checks": {"emp_verification_status": "completed"},
		},
	)

	// education_checks has no table yet; it contributes no signals.
	verdict, err := svc.Verdict(context.Background(), trackedCase("wip", models.VerifyUnset, "emp", "edu"))
	require.NoError(t, err)
	assert.Equal(t, models.VerdictReadyForReport, verdict)
}

func TestVerdictRecordWithoutSignalsMatchesVacuously(t *testing.T) {
	svc := newStatusFixture(
		map[string]bool{"employment_checks": true},
		map[string]models.DynamicRecord{
			"employment_checks": {"employer_name": "Acme Corp"},
		},
	)

	verdict, err := svc.Verdict(context.Background(), trackedCase("wip", models.VerifyUnset, "emp"))
	require.NoError(t, err)
	assert.Equal(t, models.VerdictReadyForReport, verdict)
}

func TestVerdictCompletedOverallWinsRegardlessOfSignals(t *testing.T) {
	svc := newStatusFixture(
		map[string]bool{"employment_checks": true},
		map[string]models.DynamicRecord{
			"employment_checks": {"emp_verification_status": "wip"},
		},
	)

	verdict, err := svc.Verdict(context.Background(), trackedCase("completed", models.VerifyYes, "emp"))
	require.NoError(t, err)
	assert.Equal(t, models.VerdictFinalYes, verdict)
}

func TestSubmissionStatusMissingTableReadsUnsubmitted(t *testing.T) {
	svc := newStatusFixture(
		map[string]bool{"cef_forms": true},
		map[string]models.DynamicRecord{
			"cef_forms": {"is_submitted": true},
		},
	)

	submitted, err := svc.SubmissionStatus(context.Background(), "case-1", []string{"cef_forms", "dav_forms"})
	require.NoError(t, err)
	assert.True(t, submitted["cef_forms"])
	assert.False(t, submitted["dav_forms"])
}

func TestSubmissionStatusTextualFlag(t *testing.T) {
	svc := newStatusFixture(
		map[string]bool{"dav_forms": true},
		map[string]models.DynamicRecord{
			"dav_forms": {"is_submitted": "true"},
		},
	)

	submitted, err := svc.SubmissionStatus(context.Background(), "case-1", []string{"dav_forms"})
	require.NoError(t, err)
	assert.True(t, submitted["dav_forms"])
}
