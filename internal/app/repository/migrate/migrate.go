package migrate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/repository"
)

// Report summarizes a copy run
type Report struct {
	Copied  int
	Skipped int
	Failed  int
}

// Copy copies every session from src into dst keeping ids. Sessions already present in dst
// are skipped, so the run can be repeated after a partial failure.
func Copy(ctx context.Context, src, dst repository.SessionStore, logger *zap.Logger) (Report, error) {
	var report Report

	sessions, err := src.Find(ctx, "")
	if err != nil {
		return report, apperrors.Wrap(err, "read source sessions")
	}

	// oldest first so ids are created in ascending order
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]

		// Data validation
		if strings.TrimSpace(s.Path) == "" {
			logger.Warn("skipping session without path", zap.Int64("session_id", s.ID))
			report.Skipped++
			continue
		}

		_, err := dst.Create(ctx, &s)
		switch {
		case err == nil:
			report.Copied++
		case apperrors.Is(err, apperrors.ErrDuplicateKey):
			report.Skipped++
		default:
			logger.Error("failed to copy session", zap.Int64("session_id", s.ID), zap.Error(err))
			report.Failed++
		}
	}

	logger.Info("session migration completed",
		zap.Int("copied", report.Copied),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))

	return report, nil
}
