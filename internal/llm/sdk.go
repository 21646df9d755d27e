package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

const defaultMaxTokens = 512

// completion is one vendor reply before normalization.
type completion struct {
	text      string
	model     string
	truncated bool
	usage     Usage
}

// vendorCall performs one request against a vendor SDK. Returned errors are
// already classified.
type vendorCall func(ctx context.Context, model string, req Request) (completion, error)

// sdkProvider adapts a vendorCall to Provider. Request defaults, the
// empty-reply check and usage totals are handled here for every vendor.
type sdkProvider struct {
	name  string
	model string
	call  vendorCall
}

func (p *sdkProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	req.Temperature = min(max(req.Temperature, 0), 1)

	c, err := p.call(ctx, p.model, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.text) == "" {
		return nil, &ErrEmptyResponse{Provider: p.name}
	}

	if c.usage.TotalTokens == 0 {
		c.usage.TotalTokens = c.usage.InputTokens + c.usage.OutputTokens
	}
	resp := &Response{Content: c.text, Usage: c.usage, Model: c.model, StopReason: StopEnd}
	if resp.Model == "" {
		resp.Model = p.model
	}
	if c.truncated {
		resp.StopReason = StopMaxTokens
	}
	return resp, nil
}

func (p *sdkProvider) ModelID() string { return p.model }

// Name is the vendor label stored with audit events.
func (p *sdkProvider) Name() string { return p.name }

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names pass through as direct IDs.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}

func errMissingKey(vendor string) error {
	return fmt.Errorf("%s API key is required", vendor)
}

// classifyStatus maps an HTTP status reported by any vendor SDK.
func classifyStatus(status int, err error) error {
	switch status {
	case 429:
		return &ErrRateLimit{Err: err}
	case 401, 403:
		return &ErrAuthentication{Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}

// classifyTransport handles errors that carry no HTTP status. Context
// errors pass through so callers can tell a timeout from an outage.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ErrProviderUnavailable{Err: err}
}
