package conduct

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/summary"
)

const (
	MsgSignatureRequired = "A tenant signature is required to complete this inspection"
	MsgReviewFirst       = "Review the inspection before completing"
)

// CanComplete reports whether Complete would be attempted.
func (s *Session) CanComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completeBlockerLocked() == ""
}

func (s *Session) completeBlockerLocked() string {
	switch {
	case s.done:
		return "Inspection already completed"
	case s.steps.Active() != StepReview:
		return MsgReviewFirst
	case s.detail.Inspection.Type.RequiresSignature() && !s.hasSignatureLocked():
		return MsgSignatureRequired
	}
	return ""
}

// LocalFindings summarizes the detail without the summary service.
func LocalFindings(d *domain.InspectionDetail) string {
	return summary.Fallback(d)
}

// Complete flushes pending edits, assembles findings, uploads a captured
// signature and completes the inspection. On any failure the status is unchanged.
func (s *Session) Complete(ctx context.Context, notes string) (*domain.Inspection, error) {
	s.mu.RLock()
	blocker := s.completeBlockerLocked()
	s.mu.RUnlock()
	if blocker != "" {
		return nil, validationError("complete", blocker)
	}

	if err := s.buffer.Flush(ctx); err != nil {
		return nil, classify("save checklist", err)
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}

	findings := s.findings(ctx)

	s.mu.RLock()
	sig := s.signature
	s.mu.RUnlock()
	if sig != nil {
		signed, err := s.api.UploadSignature(ctx, s.id, *sig)
		if err != nil {
			return nil, classify("upload signature", err)
		}
		s.mu.Lock()
		s.signature = nil
		s.detail.Inspection = signed
		s.mu.Unlock()
		s.logger.Info("Signature uploaded")
	}

	insp, err := s.api.Complete(ctx, s.id, CompleteInput{Findings: findings, Notes: strings.TrimSpace(notes)})
	if err != nil {
		return nil, classify("complete", err)
	}

	s.mu.Lock()
	s.done = true
	s.detail.Inspection = insp
	s.mu.Unlock()
	s.buffer.Close()

	s.logger.Info("Inspection completed", zap.String("status", string(insp.Status)))
	s.notifier.Notify(LevelSuccess, "Inspection completed")
	return insp, nil
}

// findings asks the server for an AI summary and falls back to local facts.
func (s *Session) findings(ctx context.Context) string {
	text, err := s.api.GenerateSummary(ctx, s.id)
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	if err != nil {
		s.logger.Warn("Summary unavailable, using local findings", zap.Error(err))
	}
	return LocalFindings(s.Detail())
}
