package llm

import (
	"context"
	"strings"
	"testing"
)

func TestOfflineProvider_EchoesContextBlock(t *testing.T) {
	prompt := "Question: Which organelle makes ATP?\nStudent Answer: Nucleus\nMistake Pattern: conceptual\n" +
		"Context:\nContext 1: [Topic: Biology] Q: Powerhouse? -> Correct Answer: Mitochondria. Misconception: None\n"

	resp, err := NewOfflineProvider().Generate(context.Background(), UserPrompt("sys", prompt, 100))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Content, "Context 1: [Topic: Biology] Q: Powerhouse?") {
		t.Fatalf("content does not carry the context block:\n%s", resp.Content)
	}
	if strings.Contains(resp.Content, "Student Answer") {
		t.Fatalf("content leaked the question header:\n%s", resp.Content)
	}
	if !strings.Contains(resp.Content, "Key insight") {
		t.Fatalf("content has no study hint:\n%s", resp.Content)
	}
	if resp.Model != OfflineModel || resp.StopReason != StopEnd {
		t.Fatalf("model = %q, stop = %q", resp.Model, resp.StopReason)
	}
}

func TestOfflineProvider_NoContext(t *testing.T) {
	resp, err := NewOfflineProvider().Generate(context.Background(), UserPrompt("", "Context:\n", 0))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Content, offlineEmpty) {
		t.Fatalf("content = %q", resp.Content)
	}
}

func TestOfflineProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewOfflineProvider().Generate(ctx, UserPrompt("", "x", 0)); err == nil {
		t.Fatal("expected context error")
	}
}

func TestOfflineProvider_IsFree(t *testing.T) {
	c := LookupCost(OfflineModel)
	if c == nil || c.Cost(1000, 1000) != 0 {
		t.Fatalf("cost = %+v", c)
	}
}
