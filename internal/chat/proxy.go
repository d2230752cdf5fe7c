package chat

import (
	"context"
	"errors"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionClient is the slice of the OpenAI client the proxy needs,
// separated so tests can stub the API.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Proxy forwards prompts to a chat-completion endpoint, keeping a bounded
// per-user conversation history in process memory only.
type Proxy struct {
	client       CompletionClient
	model        string
	historyTurns int

	mu        sync.Mutex
	histories map[string][]openai.ChatCompletionMessage
}

func New(apiKey, model string, historyTurns int) *Proxy {
	return NewWithClient(openai.NewClient(apiKey), model, historyTurns)
}

func NewWithClient(client CompletionClient, model string, historyTurns int) *Proxy {
	if historyTurns <= 0 {
		historyTurns = 10
	}
	return &Proxy{
		client:       client,
		model:        model,
		historyTurns: historyTurns,
		histories:    make(map[string][]openai.ChatCompletionMessage),
	}
}

// Ask sends the user's prompt with their rolling history attached and
// records both sides of the exchange.
func (p *Proxy) Ask(ctx context.Context, userID, prompt string) (string, error) {
	p.mu.Lock()
	history := append([]openai.ChatCompletionMessage(nil), p.histories[userID]...)
	p.mu.Unlock()

	messages := append(history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	answer := resp.Choices[0].Message.Content

	p.mu.Lock()
	updated := append(p.histories[userID],
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: answer},
	)
	if max := p.historyTurns * 2; len(updated) > max {
		updated = updated[len(updated)-max:]
	}
	p.histories[userID] = updated
	p.mu.Unlock()

	return answer, nil
}

// Reset drops the user's conversation history.
func (p *Proxy) Reset(userID string) {
	p.mu.Lock()
	delete(p.histories, userID)
	p.mu.Unlock()
}

// HistoryLen reports how many messages are retained for the user.
func (p *Proxy) HistoryLen(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.histories[userID])
}
