package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veriport/bgv-api/internal/models"
	"github.com/veriport/bgv-api/internal/naming"
	"github.com/veriport/bgv-api/pkg/config"
	"github.com/veriport/bgv-api/pkg/export"
)

type reportCaseReader interface {
	GetByID(ctx context.Context, id string) (*models.Case, error)
}

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ReportService assembles the final verification report PDF from the case
// and every requested service's annexure record, and ages out stored
// reports past the retention TTL.
type ReportService struct {
	cases    reportCaseReader
	store    annexureReader
	schemas  schemaReader
	renderer documentRenderer
	storage  reportStorage
	cfg      config.ReportsConfig
	logger   *zap.Logger

	cancel context.CancelFunc
}

// NewReportService constructs the report compiler.
func NewReportService(cases reportCaseReader, store annexureReader, schemas schemaReader, renderer documentRenderer, storage reportStorage, cfg config.ReportsConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{cases: cases, store: store, schemas: schemas, renderer: renderer, storage: storage, cfg: cfg, logger: logger}
}

// StartCleanup launches the periodic retention sweep over stored reports.
// A zero retention TTL leaves every report in place.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.RetentionTTL <= 0 {
		return
	}
	interval := s.cfg.CleanupInterval
	if interval <= 0 {
		interval = 12 * time.Hour
	}

	cleanupCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired()
			}
		}
	}()

	s.logger.Info("report retention sweep started",
		zap.Duration("retention", s.cfg.RetentionTTL), zap.Duration("interval", interval))
}

// StopCleanup halts the retention sweep.
func (s *ReportService) StopCleanup() {
	if s.cancel != nil {
		s.cancel()
	}
}

// CleanupExpired removes stored reports older than the retention TTL.
func (s *ReportService) CleanupExpired() {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.RetentionTTL)
	if err != nil {
		s.logger.Error("report cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
	}
}

// Compile builds the report for a case and returns the stored file path.
// An empty fileName gets a generated unique name.
func (s *ReportService) Compile(ctx context.Context, caseID, branchID, fileName string) (string, error) {
	kase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("load case %s: %w", caseID, err)
	}

	doc := export.Document{
		Title:    "Background Verification Report",
		Subtitle: fmt.Sprintf("%s %s | Application %s", kase.GenderTitle, kase.CandidateName, kase.ApplicationID),
	}

	for _, serviceID := range kase.ServiceIDs() {
		section, err := s.serviceSection(ctx, serviceID, caseID)
		if err != nil {
			return "", err
		}
		if section != nil {
			doc.Sections = append(doc.Sections, *section)
		}
	}
	if len(doc.Sections) == 0 {
		doc.Sections = append(doc.Sections, export.Section{
			Heading: "Case Summary",
			Fields: []export.Field{
				{Label: "Application ID", Value: kase.ApplicationID},
				{Label: "Candidate", Value: kase.CandidateName},
				{Label: "Overall Status", Value: kase.OverallStatus},
			},
		})
	}

	data, err := s.renderer.Render(doc)
	if err != nil {
		return "", fmt.Errorf("render report for case %s: %w", caseID, err)
	}

	if fileName == "" {
		fileName = fmt.Sprintf("%s_%s_%s.pdf", kase.ApplicationID, time.Now().UTC().Format("20060102"), uuid.NewString()[:8])
	}
	path, err := s.storage.Save(fileName, data)
	if err != nil {
		return "", fmt.Errorf("store report for case %s: %w", caseID, err)
	}

	s.logger.Info("report compiled",
		zap.String("case_id", caseID), zap.String("branch_id", branchID), zap.String("path", path))
	return path, nil
}

// serviceSection renders one service's annexure record against its form
// schema. Services with no schema, table or record yet are skipped.
func (s *ReportService) serviceSection(ctx context.Context, serviceID, caseID string) (*export.Section, error) {
	schema, err := s.schemas.GetByServiceID(ctx, serviceID)
	if err != nil {
		s.logger.Warn("skipping service without schema",
			zap.String("service_id", serviceID), zap.Error(err))
		return nil, nil
	}

	table, err := naming.NormalizeAndValidateTable(schema.DBTable)
	if err != nil {
		return nil, fmt.Errorf("service %s table: %w", serviceID, err)
	}
	exists, err := s.store.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	record, err := s.store.FetchRecord(ctx, table, caseID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	section := export.Section{Heading: schema.Heading}
	for _, row := range schema.Rows {
		for _, input := range row.Inputs {
			if input.Name == "" || input.Type == "file" {
				continue
			}
			column := naming.Normalize(input.Name)
			value := record.String(column)
			if value == "" {
				continue
			}
			label := input.Label
			if label == "" {
				label = input.Name
			}
			section.Fields = append(section.Fields, export.Field{Label: label, Value: value})
		}
	}
	status := record.String("status")
	if status != "" {
		section.Fields = append(section.Fields, export.Field{Label: "Verification Status", Value: status})
	}
	if len(section.Fields) == 0 {
		return nil, nil
	}
	return &section, nil
}
