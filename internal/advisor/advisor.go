// Package advisor answers employees' questions in the chat, taking their
// latest burnout scores into account. LLM-backed clients are chained behind
// a fallback and a deterministic keyword responder so a reply is always
// produced.
package advisor

import (
	"context"

	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
)

// Advisor is the interface the HTTP chat endpoint and the Telegram bot use.
// Tests inject a stub that returns canned replies.
type Advisor interface {
	// Reply returns advice for message given the employee's latest scores.
	//
	// Implementations must be safe to call concurrently. A non-nil error
	// means no reply was produced; callers chain a fallback.
	Reply(ctx context.Context, scores scoring.Result, message string) (string, error)
}
