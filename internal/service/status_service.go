package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/veriport/bgv-api/internal/models"
	"github.com/veriport/bgv-api/internal/naming"
)

type annexureReader interface {
	TableExists(ctx context.Context, table string) (bool, error)
	FetchRecord(ctx context.Context, table, caseID string) (models.DynamicRecord, error)
}

type schemaReader interface {
	GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceFormSchema, error)
}

// StatusService reduces the per-service annexure statuses of a case into a
// single case-level verdict.
type StatusService struct {
	store   annexureReader
	schemas schemaReader
	logger  *zap.Logger
}

// NewStatusService constructs the aggregator.
func NewStatusService(store annexureReader, schemas schemaReader, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{store: store, schemas: schemas, logger: logger}
}

// AggregateVerdict combines the signals the aggregator reads into one verdict.
// A service with no status signals matches vacuously.
func AggregateVerdict(overall models.AnnexureStatus, isVerify models.VerifyFlag, allServicesMatch bool) models.Verdict {
	if overall.CompletedColor() {
		switch isVerify {
		case models.VerifyYes:
			return models.VerdictFinalYes
		case models.VerifyNo:
			return models.VerdictFinalNo
		default:
			return models.VerdictReadyForReport
		}
	}
	if allServicesMatch {
		return models.VerdictReadyForReport
	}
	return models.VerdictNotReady
}

// Verdict computes the case-level verdict by reading every requested
// service's annexure record. A missing table or record contributes no
// signals and so matches vacuously.
func (s *StatusService) Verdict(ctx context.Context, kase *models.Case) (models.Verdict, error) {
	allMatch := true
	for _, serviceID := range kase.ServiceIDs() {
		match, err := s.serviceMatches(ctx, serviceID, kase.ID)
		if err != nil {
			return models.VerdictNotReady, err
		}
		if !match {
			allMatch = false
			break
		}
	}
	return AggregateVerdict(models.NormalizeStatus(kase.OverallStatus), kase.IsVerify, allMatch), nil
}

// serviceMatches reports whether every status signal on the service's
// annexure record is a completed-color variant.
func (s *StatusService) serviceMatches(ctx context.Context, serviceID, caseID string) (bool, error) {
	table, err := s.annexureTable(ctx, serviceID)
	if err != nil {
		return false, err
	}
	if table == "" {
		return true, nil
	}

	record, err := s.annexureRecord(ctx, table, caseID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return true, nil
	}

	for _, raw := range record.StatusSignals() {
		if !models.NormalizeStatus(raw).CompletedColor() {
			return false, nil
		}
	}
	return true, nil
}

// SubmissionStatus reports, per annexure table, whether the case has a
// submitted record. A missing table or record reads as not submitted.
func (s *StatusService) SubmissionStatus(ctx context.Context, caseID string, tables []string) (map[string]bool, error) {
	submitted := make(map[string]bool, len(tables))
	for _, table := range tables {
		normalized, err := naming.NormalizeAndValidateTable(table)
		if err != nil {
			return nil, fmt.Errorf("submission status: %w", err)
		}
		record, err := s.annexureRecord(ctx, normalized, caseID)
		if err != nil {
			return nil, err
		}
		submitted[normalized] = record != nil && isTruthy(record["is_submitted"])
	}
	return submitted, nil
}

func (s *StatusService) annexureTable(ctx context.Context, serviceID string) (string, error) {
	schema, err := s.schemas.GetByServiceID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("no form schema for service", zap.String("service_id", serviceID))
			return "", nil
		}
		return "", fmt.Errorf("load schema for service %s: %w", serviceID, err)
	}
	return naming.NormalizeAndValidateTable(schema.DBTable)
}

func (s *StatusService) annexureRecord(ctx context.Context, table, caseID string) (models.DynamicRecord, error) {
	exists, err := s.store.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return s.store.FetchRecord(ctx, table, caseID)
}

func isTruthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "t" || t == "1"
	case []byte:
		return string(t) == "true" || string(t) == "t" || string(t) == "1"
	case int64:
		return t != 0
	default:
		return false
	}
}
