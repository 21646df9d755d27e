package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/neuroquiz/internal/logger"
	"github.com/abhisek/neuroquiz/internal/store"
)

const auditWriteTimeout = 2 * time.Second

// LoggingProvider appends an audit event for every request it forwards.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
	provider  string
	log       *logger.Logger
}

// WithLogging wraps p. providerName is stored with each event.
func WithLogging(p Provider, repo store.EventRepo, providerName string, log *logger.Logger) Provider {
	return &LoggingProvider{inner: p, eventRepo: repo, provider: providerName, log: logger.OrNop(log)}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	l.audit(ctx, l.event(ctx, req, resp, err, time.Since(start)))
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) event(ctx context.Context, req Request, resp *Response, err error, elapsed time.Duration) store.LLMRequestEventData {
	ev := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   elapsed.Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = resp.Content
		if resp.Model != "" {
			ev.Model = resp.Model
		}
	}
	return ev
}

// audit never fails the request. The caller's context may already be
// done, so the write gets its own deadline.
func (l *LoggingProvider) audit(ctx context.Context, ev store.LLMRequestEventData) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if err := l.eventRepo.AppendLLMRequest(writeCtx, ev); err != nil {
		l.log.Warn("failed to record LLM request", "purpose", ev.Purpose, "error", err)
	}
}

// transcript renders the request as role-tagged blocks.
func transcript(req Request) string {
	blocks := make([]string, 0, len(req.Messages)+1)
	if req.System != "" {
		blocks = append(blocks, "[system]\n"+req.System)
	}
	for _, m := range req.Messages {
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", m.Role, m.Content))
	}
	return strings.Join(blocks, "\n\n")
}
