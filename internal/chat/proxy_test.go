package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type stubClient struct {
	calls   int
	lastReq openai.ChatCompletionRequest
	answer  string
	err     error
	empty   bool
}

func (c *stubClient) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.calls++
	c.lastReq = request
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	if c.empty {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.answer}},
		},
	}, nil
}

func TestAskRecordsBothSides(t *testing.T) {
	stub := &stubClient{answer: "hello"}
	proxy := NewWithClient(stub, "test-model", 10)

	answer, err := proxy.Ask(context.Background(), "u1", "hi")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer != "hello" {
		t.Fatalf("expected hello, got %q", answer)
	}
	if proxy.HistoryLen("u1") != 2 {
		t.Fatalf("expected 2 history messages, got %d", proxy.HistoryLen("u1"))
	}
	if stub.lastReq.Model != "test-model" {
		t.Fatalf("expected model to pass through, got %q", stub.lastReq.Model)
	}
}

func TestAskSendsHistoryWithPrompt(t *testing.T) {
	stub := &stubClient{answer: "a"}
	proxy := NewWithClient(stub, "m", 10)
	ctx := context.Background()

	if _, err := proxy.Ask(ctx, "u1", "first"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if _, err := proxy.Ask(ctx, "u1", "second"); err != nil {
		t.Fatalf("ask: %v", err)
	}

	// first exchange (2 messages) plus the new prompt.
	if len(stub.lastReq.Messages) != 3 {
		t.Fatalf("expected 3 messages in request, got %d", len(stub.lastReq.Messages))
	}
	last := stub.lastReq.Messages[2]
	if last.Role != openai.ChatMessageRoleUser || last.Content != "second" {
		t.Fatalf("unexpected final message: %+v", last)
	}
}

func TestHistoryTrimsToConfiguredTurns(t *testing.T) {
	stub := &stubClient{answer: "a"}
	proxy := NewWithClient(stub, "m", 3)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if _, err := proxy.Ask(ctx, "u1", fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("ask %d: %v", i, err)
		}
	}

	if got := proxy.HistoryLen("u1"); got != 6 {
		t.Fatalf("expected history capped at 6 messages, got %d", got)
	}
}

func TestHistoriesAreIsolatedPerUser(t *testing.T) {
	stub := &stubClient{answer: "a"}
	proxy := NewWithClient(stub, "m", 10)
	ctx := context.Background()

	if _, err := proxy.Ask(ctx, "u1", "hi"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if proxy.HistoryLen("u2") != 0 {
		t.Fatalf("u2 history must stay empty")
	}
}

func TestResetDropsHistory(t *testing.T) {
	stub := &stubClient{answer: "a"}
	proxy := NewWithClient(stub, "m", 10)

	if _, err := proxy.Ask(context.Background(), "u1", "hi"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	proxy.Reset("u1")
	if proxy.HistoryLen("u1") != 0 {
		t.Fatalf("expected empty history after reset")
	}
}

func TestAskErrorLeavesHistoryUntouched(t *testing.T) {
	stub := &stubClient{err: errors.New("boom")}
	proxy := NewWithClient(stub, "m", 10)

	if _, err := proxy.Ask(context.Background(), "u1", "hi"); err == nil {
		t.Fatalf("expected error")
	}
	if proxy.HistoryLen("u1") != 0 {
		t.Fatalf("failed call must not be recorded")
	}
}

func TestAskEmptyChoices(t *testing.T) {
	stub := &stubClient{empty: true}
	proxy := NewWithClient(stub, "m", 10)

	if _, err := proxy.Ask(context.Background(), "u1", "hi"); err == nil {
		t.Fatalf("expected error on empty response")
	}
}
