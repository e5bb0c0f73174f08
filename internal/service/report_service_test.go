package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriport/bgv-api/internal/models"
	"github.com/veriport/bgv-api/pkg/config"
	"github.com/veriport/bgv-api/pkg/export"
)

type rendererStub struct {
	doc export.Document
	err error
}

func (s *rendererStub) Render(doc export.Document) ([]byte, error) {
	s.doc = doc
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-stub"), nil
}

type reportStorageStub struct {
	saved      map[string][]byte
	cleanedTTL []time.Duration
	deleted    []string
	cleanupErr error
}

func newReportStorageStub() *reportStorageStub {
	return &reportStorageStub{saved: map[string][]byte{}}
}

func (s *reportStorageStub) Save(filename string, data []byte) (string, error) {
	s.saved[filename] = data
	return "/reports/" + filename, nil
}

func (s *reportStorageStub) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	s.cleanedTTL = append(s.cleanedTTL, ttl)
	return s.deleted, s.cleanupErr
}

func reportCase() *models.Case {
	kase := &models.Case{
		ID:            "case-1",
		ApplicationID: "APP-100",
		BranchID:      "branch-1",
		CandidateName: "A. Candidate",
		GenderTitle:   "Ms",
		OverallStatus: "completed",
	}
	kase.SetServiceIDs([]string{"emp"})
	return kase
}

func TestReportServiceCompile(t *testing.T) {
	schemas := &schemaStoreStub{schemas: map[string]*models.ServiceFormSchema{
		"emp": {ServiceID: "emp", DBTable: "employment_checks", Heading: "Employment Verification", Rows: []models.FormRow{
			{Inputs: []models.FormInput{
				{Name: "employer_name", Label: "Employer"},
				{Name: "offer_letter", Label: "Offer Letter", Type: "file"},
			}},
		}},
	}}
	store := &annexureStoreStub{
		tables: map[string]bool{"employment_checks": true},
		records: map[string]models.DynamicRecord{
			"employment_checks": {"employer_name": "Acme Corp", "status": "completed_green"},
		},
	}
	renderer := &rendererStub{}
	storage := newReportStorageStub()
	svc := NewReportService(&caseRepoStub{kase: reportCase()}, store, schemas, renderer, storage, config.ReportsConfig{}, nil)

	path, err := svc.Compile(context.Background(), "case-1", "branch-1", "APP-100_final.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/reports/APP-100_final.pdf", path)
	assert.Contains(t, storage.saved, "APP-100_final.pdf")

	require.Len(t, renderer.doc.Sections, 1)
	section := renderer.doc.Sections[0]
	assert.Equal(t, "Employment Verification", section.Heading)
	labels := make([]string, 0, len(section.Fields))
	for _, field := range section.Fields {
		labels = append(labels, field.Label)
	}
	assert.Contains(t, labels, "Employer")
	assert.Contains(t, labels, "Verification Status")
	assert.NotContains(t, labels, "Offer Letter", "file inputs never render into the report")
}

func TestReportServiceCompileUnknownCase(t *testing.T) {
	svc := NewReportService(&caseRepoStub{getErr: errors.New("no such case")}, &annexureStoreStub{}, &schemaStoreStub{},
		&rendererStub{}, newReportStorageStub(), config.ReportsConfig{}, nil)

	_, err := svc.Compile(context.Background(), "case-404", "branch-1", "")
	assert.Error(t, err)
}

func TestReportServiceCleanupExpired(t *testing.T) {
	storage := newReportStorageStub()
	storage.deleted = []string{"old.pdf"}
	svc := NewReportService(&caseRepoStub{}, &annexureStoreStub{}, &schemaStoreStub{},
		&rendererStub{}, storage, config.ReportsConfig{RetentionTTL: 30 * 24 * time.Hour}, nil)

	svc.CleanupExpired()
	require.Len(t, storage.cleanedTTL, 1)
	assert.Equal(t, 30*24*time.Hour, storage.cleanedTTL[0])
}

func TestReportServiceCleanupFailureIsNonFatal(t *testing.T) {
	storage := newReportStorageStub()
	storage.cleanupErr = errors.New("disk error")
	svc := NewReportService(&caseRepoStub{}, &annexureStoreStub{}, &schemaStoreStub{},
		&rendererStub{}, storage, config.ReportsConfig{RetentionTTL: time.Hour}, nil)

	svc.CleanupExpired()
	require.Len(t, storage.cleanedTTL, 1)
}

func TestReportServiceStartCleanupDisabledWithoutRetention(t *testing.T) {
	svc := NewReportService(&caseRepoStub{}, &annexureStoreStub{}, &schemaStoreStub{},
		&rendererStub{}, newReportStorageStub(), config.ReportsConfig{}, nil)

	svc.StartCleanup(context.Background())
	assert.Nil(t, svc.cancel)
}
