// Package translate turns a free-text question into either a candidate SQL
// statement or a guidance message, using one completion call.
package translate

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/apperr"
	"github.com/agurod42/outfox-health/internal/llm"
)

const maxCompletionTokens = 800

// Translator issues the completion call.
type Translator struct {
	provider llm.Provider
	timeout  time.Duration
	log      zerolog.Logger
}

// New returns a Translator bounded by timeout per call.
func New(p llm.Provider, timeout time.Duration, log zerolog.Logger) *Translator {
	return &Translator{provider: p, timeout: timeout, log: log.With().Str("component", "translator").Logger()}
}

// Translate makes exactly one completion call. Call failures are returned as
// TranslatorFailure; undecodable replies come back as guidance, not errors.
func (t *Translator) Translate(ctx context.Context, question string, h Hints) (Outcome, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := t.provider.Complete(ctx, &llm.Request{
		SystemPrompt: SystemPrompt,
		UserPrompt:   BuildUserPrompt(question, h),
		MaxTokens:    maxCompletionTokens,
		JSONOutput:   true,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.KindTranslatorFailure, err, "translator timed out after %s", t.timeout)
		}
		return nil, apperr.Wrap(apperr.KindTranslatorFailure, err, "translator call failed")
	}

	out, derr := decode(resp.Content)
	if derr != nil {
		t.log.Warn().Err(derr).Str("model", resp.Model).Msg("malformed translator output; falling back to guidance")
		out = GuidanceOutcome{Message: FallbackGuidance}
	}
	t.log.Debug().
		Str("model", resp.Model).
		Str("hints", h.String()).
		Dur("duration", time.Since(start)).
		Msg("translated question")
	return out, nil
}
