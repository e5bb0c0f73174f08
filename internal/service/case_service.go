package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/veriport/bgv-api/internal/dto"
	"github.com/veriport/bgv-api/internal/models"
	appErrors "github.com/veriport/bgv-api/pkg/errors"
)

type caseRepository interface {
	Create(ctx context.Context, kase *models.Case) error
	GetByID(ctx context.Context, id string) (*models.Case, error)
	GetByApplication(ctx context.Context, applicationID, branchID string) (*models.Case, error)
	SetDueDate(ctx context.Context, id string, due time.Time) error
}

type dueDateComputer interface {
	DueDate(ctx context.Context, start time.Time, tatDays int) (time.Time, error)
}

// CaseService manages case registration and TAT due dates.
type CaseService struct {
	repo      caseRepository
	calendar  dueDateComputer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCaseService constructs the case service.
func NewCaseService(repo caseRepository, calendar dueDateComputer, validate *validator.Validate, logger *zap.Logger) *CaseService {
	if validate == nil {
		validate = validator.New()
	}
	registerTagNames(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{repo: repo, calendar: calendar, validator: validate, logger: logger}
}

// Create registers a new case for a branch's application and computes its
// TAT due date. A second submission for the same (application, branch) pair
// is a conflict.
func (s *CaseService) Create(ctx context.Context, branchID string, req dto.CreateCaseRequest) (*models.Case, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, validationMessage(err))
	}

	kase := &models.Case{
		ID:            uuid.NewString(),
		ApplicationID: req.ApplicationID,
		BranchID:      branchID,
		CustomerID:    req.CustomerID,
		CandidateName: req.CandidateName,
		GenderTitle:   req.GenderTitle,
		OverallStatus: string(models.StatusInitiated),
		IsVerify:      models.VerifyUnset,
	}
	kase.SetServiceIDs(req.ServiceIDs)

	start := time.Now().UTC()
	due, err := s.calendar.DueDate(ctx, start, req.TATDays)
	if err != nil {
		if errors.Is(err, appErrors.ErrNoQualifyingDay) {
			return nil, appErrors.ErrNoQualifyingDay
		}
		return nil, fmt.Errorf("compute due date: %w", err)
	}
	kase.DueDate = &due

	if err := s.repo.Create(ctx, kase); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == "23505" {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("application %s already registered for this branch", req.ApplicationID))
		}
		return nil, err
	}
	return kase, nil
}

// Get fetches a case by id.
func (s *CaseService) Get(ctx context.Context, id string) (*models.Case, error) {
	kase, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("case %s not found", id))
		}
		return nil, err
	}
	return kase, nil
}

// GetByApplication resolves a branch's case from its business-facing
// application id.
func (s *CaseService) GetByApplication(ctx context.Context, branchID, applicationID string) (*models.Case, error) {
	kase, err := s.repo.GetByApplication(ctx, applicationID, branchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("application %s not found for this branch", applicationID))
		}
		return nil, err
	}
	return kase, nil
}

// DueDate recomputes the TAT due date for an existing case with the given
// day count and persists the result.
func (s *CaseService) DueDate(ctx context.Context, caseID string, tatDays int) (*dto.DueDateResponse, error) {
	kase, err := s.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}

	due, err := s.calendar.DueDate(ctx, kase.CreatedAt, tatDays)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDueDate(ctx, caseID, due); err != nil {
		s.logger.Warn("due date persist failed", zap.String("case_id", caseID), zap.Error(err))
	}

	return &dto.DueDateResponse{CaseID: caseID, TATDays: tatDays, DueDate: due}, nil
}
