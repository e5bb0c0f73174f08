package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veriport/bgv-api/internal/models"
	"github.com/veriport/bgv-api/pkg/config"
	"github.com/veriport/bgv-api/pkg/jobs"
)

// Annexure tables whose missing submission triggers a reminder.
const (
	cefTable = "cef_forms"
	davTable = "dav_forms"
)

type reminderStore interface {
	ListDue(ctx context.Context, gapDays, cap int) ([]models.ReminderCandidate, error)
	MarkSent(ctx context.Context, caseID string) error
}

type submissionChecker interface {
	SubmissionStatus(ctx context.Context, caseID string, tables []string) (map[string]bool, error)
}

type reminderMetrics interface {
	RecordReminderSent()
}

// ReminderService periodically sweeps for cases whose CEF and DAV forms are
// still unsubmitted and dispatches reminder emails through a worker queue.
type ReminderService struct {
	repo     reminderStore
	statuses submissionChecker
	notifier Notifier
	metrics  reminderMetrics
	queue    *jobs.Queue
	cfg      config.ReminderConfig
	logger   *zap.Logger

	cancel context.CancelFunc
}

// NewReminderService constructs the sweep and its dispatch queue. The
// metrics sink is optional.
func NewReminderService(repo reminderStore, statuses submissionChecker, notifier Notifier, metrics reminderMetrics, cfg config.ReminderConfig, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReminderService{
		repo:     repo,
		statuses: statuses,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
	}
	s.queue = jobs.NewQueue("reminders", s.handleJob, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the dispatch workers and the periodic sweep loop. It
// returns immediately; Stop shuts both down.
func (s *ReminderService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("reminder sweep disabled")
		return
	}

	s.queue.Start(ctx)

	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if err := s.Sweep(sweepCtx); err != nil {
					s.logger.Error("reminder sweep failed", zap.Error(err))
				}
			}
		}
	}()

	s.logger.Info("reminder sweep started",
		zap.Duration("interval", s.cfg.SweepInterval), zap.Int("gap_days", s.cfg.GapDays))
}

// Stop halts the sweep loop and drains the dispatch queue.
func (s *ReminderService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Stop()
}

// Sweep selects eligible cases and enqueues one reminder per case. A failure
// on one case never aborts the rest of the sweep.
func (s *ReminderService) Sweep(ctx context.Context) error {
	candidates, err := s.repo.ListDue(ctx, s.cfg.GapDays, models.MaxReminders)
	if err != nil {
		return fmt.Errorf("select reminder candidates: %w", err)
	}

	enqueued := 0
	for _, candidate := range candidates {
		pending, err := s.needsReminder(ctx, candidate.CaseID)
		if err != nil {
			s.logger.Error("reminder eligibility check failed",
				zap.String("case_id", candidate.CaseID), zap.Error(err))
			continue
		}
		if !pending {
			continue
		}
		if err := s.queue.Enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    "case_reminder",
			Payload: candidate,
		}); err != nil {
			s.logger.Warn("reminder enqueue failed",
				zap.String("case_id", candidate.CaseID), zap.Error(err))
			continue
		}
		enqueued++
	}

	s.logger.Info("reminder sweep completed",
		zap.Int("candidates", len(candidates)), zap.Int("enqueued", enqueued))
	return nil
}

// needsReminder reports whether both the CEF and DAV forms are still
// unsubmitted. A form whose backing table does not exist yet reads as not
// submitted rather than an error.
func (s *ReminderService) needsReminder(ctx context.Context, caseID string) (bool, error) {
	submitted, err := s.statuses.SubmissionStatus(ctx, caseID, []string{cefTable, davTable})
	if err != nil {
		return false, err
	}
	return !submitted[cefTable] && !submitted[davTable], nil
}

func (s *ReminderService) handleJob(ctx context.Context, job jobs.Job) error {
	candidate, ok := job.Payload.(models.ReminderCandidate)
	if !ok {
		return fmt.Errorf("unexpected reminder payload %T", job.Payload)
	}
	if candidate.BranchEmail == "" {
		s.logger.Warn("reminder skipped, no branch recipient",
			zap.String("case_id", candidate.CaseID))
		return nil
	}

	note := Notification{
		CompanyName:   candidate.CustomerID,
		CandidateName: candidate.CandidateName,
		ApplicationID: candidate.ApplicationID,
		To:            []string{candidate.BranchEmail},
	}
	if err := s.notifier.SendReminder(ctx, note); err != nil {
		return fmt.Errorf("send reminder for case %s: %w", candidate.CaseID, err)
	}

	if err := s.repo.MarkSent(ctx, candidate.CaseID); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordReminderSent()
	}
	s.logger.Info("reminder sent",
		zap.String("case_id", candidate.CaseID), zap.Int("count", candidate.ReminderCount+1))
	return nil
}
