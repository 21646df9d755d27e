package llm

import (
	"context"
	"strings"
)

// OfflineModel is the model id reported by OfflineProvider.
const OfflineModel = "offline-context-echo"

// contextMarker opens the retrieved-context block of an explanation prompt.
const contextMarker = "Context:\n"

const (
	offlineLead    = "Based on your answer and similar questions in the bank:\n\n"
	offlineInsight = "\n\nKey insight: compare your choice with the correct answers and misconceptions above before trying again."
	offlineEmpty   = "No related questions were retrieved."
)

// OfflineProvider answers without calling a vendor. It replays the
// retrieved context block of the prompt followed by a short study hint, so
// retrieval stays visible when no API key is configured.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

func (*OfflineProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var prompt string
	for _, m := range req.Messages {
		if m.Role == RoleUser {
			prompt = m.Content
		}
	}

	block := offlineEmpty
	if i := strings.LastIndex(prompt, contextMarker); i >= 0 {
		if c := strings.TrimSpace(prompt[i+len(contextMarker):]); c != "" {
			block = c
		}
	}

	content := offlineLead + block + offlineInsight
	return &Response{
		Content:    content,
		Model:      OfflineModel,
		StopReason: StopEnd,
		Usage:      Usage{OutputTokens: len(strings.Fields(content)), TotalTokens: len(strings.Fields(content))},
	}, nil
}

func (*OfflineProvider) ModelID() string { return OfflineModel }
