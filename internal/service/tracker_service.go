package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/veriport/bgv-api/internal/dto"
	"github.com/veriport/bgv-api/internal/models"
	"github.com/veriport/bgv-api/internal/naming"
	"github.com/veriport/bgv-api/internal/repository"
	"github.com/veriport/bgv-api/pkg/config"
	appErrors "github.com/veriport/bgv-api/pkg/errors"
)

type dynamicStore interface {
	EnsureTable(ctx context.Context, table string) error
	EnsureColumns(ctx context.Context, table string, fields []string) error
	UpsertRecord(ctx context.Context, table string, spec models.UpsertSpec) (int64, error)
	FetchRecord(ctx context.Context, table, caseID string) (models.DynamicRecord, error)
}

type trackerCaseStore interface {
	GetByID(ctx context.Context, id string) (*models.Case, error)
	UpdateOverallStatus(ctx context.Context, id, status string, isVerify models.VerifyFlag) error
	UpdateReportInfo(ctx context.Context, id string, info models.ReportInfo) error
}

type verdictAggregator interface {
	Verdict(ctx context.Context, kase *models.Case) (models.Verdict, error)
}

// ReportCompiler assembles the final report PDF and returns its file path.
type ReportCompiler interface {
	Compile(ctx context.Context, caseID, branchID, fileName string) (string, error)
}

type recipientDirectory interface {
	BranchEmails(ctx context.Context, branchID string) ([]string, error)
	CustomerEmails(ctx context.Context, customerID string) ([]string, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListByCase(ctx context.Context, caseID string, limit int) ([]models.AuditLog, error)
}

type trackerMetrics interface {
	RecordCaseUpdate(verdict string)
	RecordNotification(kind string, sent bool)
}

// TrackerService is the single entry point for applying an incremental case
// update and driving its side effects: dynamic persistence, status
// aggregation and notification dispatch.
type TrackerService struct {
	store      dynamicStore
	cases      trackerCaseStore
	aggregator verdictAggregator
	notifier   Notifier
	compiler   ReportCompiler
	recipients recipientDirectory
	audit      auditRecorder
	metrics    trackerMetrics
	cfg        config.TrackerConfig
	reports    config.ReportsConfig
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTrackerService constructs the orchestrator. The audit recorder and
// metrics sink are optional.
func NewTrackerService(
	store dynamicStore,
	cases trackerCaseStore,
	aggregator verdictAggregator,
	notifier Notifier,
	compiler ReportCompiler,
	recipients recipientDirectory,
	audit auditRecorder,
	metrics trackerMetrics,
	cfg config.TrackerConfig,
	reports config.ReportsConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *TrackerService {
	if validate == nil {
		validate = validator.New()
	}
	registerTagNames(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackerService{
		store:      store,
		cases:      cases,
		aggregator: aggregator,
		notifier:   notifier,
		compiler:   compiler,
		recipients: recipients,
		audit:      audit,
		metrics:    metrics,
		cfg:        cfg,
		reports:    reports,
		validator:  validate,
		logger:     logger,
	}
}

// ApplyCaseUpdate flattens the nested payload, upserts the tracker record and
// every annexure block, mirrors overall_status onto the case, and when
// requested dispatches exactly one notification. Notification failure never
// turns a successful save into an error.
func (s *TrackerService) ApplyCaseUpdate(ctx context.Context, req dto.CaseUpdateRequest) (*dto.CaseUpdateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, validationMessage(err))
	}

	kase, err := s.cases.GetByID(ctx, req.CaseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("case %s not found", req.CaseID))
		}
		return nil, fmt.Errorf("load case %s: %w", req.CaseID, err)
	}

	main, annexures := FlattenCaseFields(req.Fields)

	if err := s.store.EnsureTable(ctx, repository.TrackerTable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSchemaEvolution.Code, appErrors.ErrSchemaEvolution.Status, appErrors.ErrSchemaEvolution.Message)
	}

	existing, err := s.store.FetchRecord(ctx, repository.TrackerTable, req.CaseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	created := existing == nil

	if err := s.store.EnsureColumns(ctx, repository.TrackerTable, sortedKeys(main)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSchemaEvolution.Code, appErrors.ErrSchemaEvolution.Status, appErrors.ErrSchemaEvolution.Message)
	}

	trackerID, err := s.store.UpsertRecord(ctx, repository.TrackerTable, models.UpsertSpec{
		CaseID:     req.CaseID,
		BranchID:   req.BranchID,
		CustomerID: req.CustomerID,
		Fields:     main,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}

	s.recordAudit(ctx, req, created, existing, main)

	resp := &dto.CaseUpdateResponse{Saved: true, Created: created, TrackerID: trackerID}

	for _, table := range sortedKeys(annexures) {
		if err := s.applyAnnexureBlock(ctx, table, trackerID, req, annexures[table]); err != nil {
			s.logger.Error("annexure block failed",
				zap.String("case_id", req.CaseID), zap.String("table", table), zap.Error(err))
			resp.FailedBlocks = append(resp.FailedBlocks, dto.BlockFailure{Table: table, Error: err.Error()})
		}
	}

	if overall, ok := main["overall_status"]; ok {
		isVerify := kase.IsVerify
		if raw, ok := main["is_verify"]; ok {
			isVerify = models.NormalizeVerifyFlag(raw)
		}
		if err := s.cases.UpdateOverallStatus(ctx, req.CaseID, overall, isVerify); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
		}
		kase.OverallStatus = overall
		kase.IsVerify = isVerify
	}

	if !req.SendMail {
		resp.Notification = dto.NotificationResult{Requested: false, Message: "email not requested"}
		return resp, nil
	}

	verdict, err := s.aggregator.Verdict(ctx, kase)
	if err != nil {
		s.logger.Error("status aggregation failed",
			zap.String("case_id", req.CaseID), zap.Error(err))
		resp.Notification = dto.NotificationResult{Requested: true, Sent: false, Message: "submitted but status aggregation failed"}
		return resp, nil
	}
	resp.Verdict = verdict
	if s.metrics != nil {
		s.metrics.RecordCaseUpdate(string(verdict))
	}

	resp.Notification = s.dispatch(ctx, kase, main, verdict)
	return resp, nil
}

// AuditTrail returns the tracker change history for a case, newest first,
// with each entry's field diffs decoded.
func (s *TrackerService) AuditTrail(ctx context.Context, caseID string, limit int) ([]dto.AuditEntry, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("case %s not found", caseID))
		}
		return nil, fmt.Errorf("load case %s: %w", caseID, err)
	}
	if s.audit == nil {
		return []dto.AuditEntry{}, nil
	}

	logs, err := s.audit.ListByCase(ctx, caseID, limit)
	if err != nil {
		return nil, fmt.Errorf("load audit trail for case %s: %w", caseID, err)
	}

	entries := make([]dto.AuditEntry, 0, len(logs))
	for _, entry := range logs {
		out := dto.AuditEntry{
			ID:        entry.ID,
			CaseID:    entry.CaseID,
			ActorID:   entry.ActorID,
			Action:    entry.Action,
			CreatedAt: entry.CreatedAt,
		}
		if len(entry.Changes) > 0 {
			if err := json.Unmarshal(entry.Changes, &out.Changes); err != nil {
				s.logger.Warn("audit diff unmarshal failed",
					zap.Int64("audit_id", entry.ID), zap.Error(err))
			}
		}
		entries = append(entries, out)
	}
	return entries, nil
}

// applyAnnexureBlock persists one annexure bucket into its own table.
// Failures here are isolated; sibling blocks already applied stay applied.
func (s *TrackerService) applyAnnexureBlock(ctx context.Context, rawTable string, trackerID int64, req dto.CaseUpdateRequest, fields map[string]string) error {
	table, err := naming.NormalizeAndValidateTable(rawTable)
	if err != nil {
		return err
	}
	if err := s.store.EnsureTable(ctx, table); err != nil {
		return err
	}
	if err := s.store.EnsureColumns(ctx, table, sortedKeys(fields)); err != nil {
		return err
	}
	_, err = s.store.UpsertRecord(ctx, table, models.UpsertSpec{
		CaseID:     req.CaseID,
		BranchID:   req.BranchID,
		CustomerID: req.CustomerID,
		TrackerID:  &trackerID,
		Fields:     fields,
	})
	return err
}

// dispatch fires exactly one notification for the verdict. The final report
// is compiled first for a fully verified case; compile failure skips the
// attachment but still sends.
func (s *TrackerService) dispatch(ctx context.Context, kase *models.Case, main map[string]string, verdict models.Verdict) dto.NotificationResult {
	if verdict == models.VerdictNotReady {
		return dto.NotificationResult{Requested: true, Sent: false, Message: "case not ready, no notification sent"}
	}

	note := Notification{
		CompanyName:   kase.CustomerID,
		GenderTitle:   kase.GenderTitle,
		CandidateName: kase.CandidateName,
		ApplicationID: kase.ApplicationID,
	}

	branchEmails, err := s.recipients.BranchEmails(ctx, kase.BranchID)
	if err != nil || len(branchEmails) == 0 {
		s.logger.Error("no branch recipients",
			zap.String("case_id", kase.ID), zap.String("branch_id", kase.BranchID), zap.Error(err))
		return dto.NotificationResult{Requested: true, Sent: false, Kind: string(verdict), Message: "submitted but email failed: no branch recipients"}
	}
	note.To = branchEmails

	var kind string
	var sendErr error
	switch verdict {
	case models.VerdictFinalYes:
		kind = "final_report"
		note.CC = s.customerCC(ctx, kase.CustomerID)
		if path := s.compileReport(ctx, kase, main); path != "" {
			note.Attachments = append(note.Attachments, path)
		}
		sendErr = s.notify(ctx, func(c context.Context) error { return s.notifier.SendFinalReport(c, note) })
	case models.VerdictFinalNo:
		kind = "insufficiency"
		note.CC = s.customerCC(ctx, kase.CustomerID)
		sendErr = s.notify(ctx, func(c context.Context) error { return s.notifier.SendInsufficiency(c, note) })
	default:
		kind = "ready_for_report"
		sendErr = s.notify(ctx, func(c context.Context) error { return s.notifier.SendReadyForReport(c, note) })
	}

	if s.metrics != nil {
		s.metrics.RecordNotification(kind, sendErr == nil)
	}
	if sendErr != nil {
		s.logger.Error("notification dispatch failed",
			zap.String("case_id", kase.ID), zap.String("kind", kind), zap.Error(sendErr))
		return dto.NotificationResult{Requested: true, Sent: false, Kind: kind, Message: "submitted but email failed"}
	}
	return dto.NotificationResult{Requested: true, Sent: true, Kind: kind, Message: "notification sent"}
}

// compileReport builds the final report under a bounded timeout and records
// the report metadata on the case. Failure returns an empty path.
func (s *TrackerService) compileReport(ctx context.Context, kase *models.Case, main map[string]string) string {
	compileCtx, cancel := context.WithTimeout(ctx, s.reports.CompileTimeout)
	defer cancel()

	path, err := s.compiler.Compile(compileCtx, kase.ID, kase.BranchID, "")
	if err != nil {
		s.logger.Error("report compile failed",
			zap.String("case_id", kase.ID), zap.Error(err))
		return ""
	}

	finalStatus := main["final_verification_status"]
	if finalStatus == "" {
		finalStatus = kase.OverallStatus
	}
	info := models.ReportInfo{
		ReportType:              "final",
		ReportDate:              time.Now().UTC(),
		FinalVerificationStatus: finalStatus,
	}
	if err := s.cases.UpdateReportInfo(ctx, kase.ID, info); err != nil {
		s.logger.Error("report metadata update failed",
			zap.String("case_id", kase.ID), zap.Error(err))
	}
	return path
}

func (s *TrackerService) notify(ctx context.Context, send func(context.Context) error) error {
	notifyCtx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()
	return send(notifyCtx)
}

func (s *TrackerService) customerCC(ctx context.Context, customerID string) []string {
	cc, err := s.recipients.CustomerEmails(ctx, customerID)
	if err != nil {
		s.logger.Warn("customer CC lookup failed",
			zap.String("customer_id", customerID), zap.Error(err))
		return nil
	}
	return cc
}

// recordAudit logs the create/update distinction and field-level diffs.
// Audit failure never fails the save.
func (s *TrackerService) recordAudit(ctx context.Context, req dto.CaseUpdateRequest, created bool, existing models.DynamicRecord, main map[string]string) {
	if s.audit == nil {
		return
	}

	action := models.AuditActionUpdate
	if created {
		action = models.AuditActionCreate
	}

	diffs := make([]models.FieldDiff, 0, len(main))
	for _, field := range sortedKeys(main) {
		old := ""
		if existing != nil {
			old = existing.String(field)
		}
		if old == main[field] {
			continue
		}
		diffs = append(diffs, models.FieldDiff{Field: field, Old: old, New: main[field]})
	}

	changes, err := json.Marshal(diffs)
	if err != nil {
		s.logger.Warn("audit diff marshal failed", zap.String("case_id", req.CaseID), zap.Error(err))
		return
	}
	log := &models.AuditLog{
		CaseID:  req.CaseID,
		ActorID: req.BranchID,
		Action:  action,
		Changes: changes,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit write failed", zap.String("case_id", req.CaseID), zap.Error(err))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// registerTagNames makes validation errors report the JSON field names the
// caller actually sent.
func registerTagNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validationMessage lists the offending fields so the caller sees exactly
// which identifiers are missing.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "missing or invalid fields: " + strings.Join(fields, ", ")
}
