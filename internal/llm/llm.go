// Package llm provides the chat-completion client used by the dialogue
// service and the model-based extraction channel.
package llm

import "context"

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request bundles the messages with per-call sampling options. Zero values
// leave the provider defaults in place.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Client generates a single completion for a chat request.
type Client interface {
	Chat(ctx context.Context, req Request) (string, error)
}
