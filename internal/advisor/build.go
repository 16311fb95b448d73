package advisor

import "log/slog"

// Options selects the LLM backends. A backend with an empty key is skipped.
type Options struct {
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	AnthropicAPIKey string
	AnthropicModel  string
}

// New builds the advisor chain: the OpenAI-compatible endpoint first, then
// Anthropic, then the keyword responder.
func New(opts Options, logger *slog.Logger) Advisor {
	var primary, secondary Advisor
	if opts.LLMAPIKey != "" {
		primary = NewOpenAICompatibleClient(opts.LLMBaseURL, opts.LLMAPIKey, opts.LLMModel)
	}
	if opts.AnthropicAPIKey != "" {
		secondary = NewAnthropicClient(opts.AnthropicAPIKey, opts.AnthropicModel)
	}

	switch {
	case primary != nil && secondary != nil:
		logger.Info("advisor: using LLM with Anthropic fallback")
	case primary != nil:
		logger.Info("advisor: using LLM only")
	case secondary != nil:
		logger.Info("advisor: using Anthropic only")
	default:
		logger.Info("advisor: no LLM configured, using keyword replies")
	}
	return Chain(logger, primary, secondary)
}
