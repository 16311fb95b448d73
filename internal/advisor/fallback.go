package advisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
)

// fallbackAdvisor calls the primary first; if that returns an error it logs
// the failure and tries the secondary.
type fallbackAdvisor struct {
	primary   Advisor
	secondary Advisor
	logger    *slog.Logger
}

// NewFallbackAdvisor returns an Advisor that calls primary and, on failure,
// falls back to secondary. If primary is nil it goes straight to secondary;
// if secondary is nil and primary fails, the primary error is returned.
func NewFallbackAdvisor(primary, secondary Advisor, logger *slog.Logger) Advisor {
	return &fallbackAdvisor{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *fallbackAdvisor) Reply(ctx context.Context, scores scoring.Result, message string) (string, error) {
	if f.primary != nil {
		reply, err := f.primary.Reply(ctx, scores, message)
		if err == nil {
			return reply, nil
		}
		f.logger.Warn("advisor: primary failed, trying secondary", "error", err)
		if f.secondary == nil {
			return "", fmt.Errorf("advisor: primary failed and no secondary configured: %w", err)
		}
	}

	return f.secondary.Reply(ctx, scores, message)
}

// Chain wraps advisors in order, ending with the keyword responder, so the
// returned Advisor never fails. Nil entries are skipped.
func Chain(logger *slog.Logger, advisors ...Advisor) Advisor {
	var out Advisor = NewKeywordAdvisor()
	for i := len(advisors) - 1; i >= 0; i-- {
		if advisors[i] == nil {
			continue
		}
		out = NewFallbackAdvisor(advisors[i], out, logger)
	}
	return out
}
