// Package anthropic implements the generation provider on Anthropic's API.
package anthropic

import (
	"context"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/agrivaani/agrivaani"
)

// Generator streams messages from Anthropic.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates an Anthropic-backed generator.
func New(apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, agrivaani.NewConfigurationError("Anthropic API key is required")
	}
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	return &Generator{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 2048,
	}, nil
}

// GenerateStream opens a streaming message for the assembled prompt.
func (g *Generator) GenerateStream(ctx context.Context, prompt string) (agrivaani.ReplyStream, error) {
	stream := g.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	return &replyStream{stream: stream}, nil
}

type replyStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// Recv returns the next text fragment, skipping non-text events. io.EOF
// marks a normal end of stream.
func (s *replyStream) Recv() (string, error) {
	for s.stream.Next() {
		event := s.stream.Current()
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
			return text.Text, nil
		}
	}
	if err := s.stream.Err(); err != nil {
		return "", agrivaani.NewUpstreamError("message stream failed", err)
	}
	return "", io.EOF
}

func (s *replyStream) Close() error {
	return s.stream.Close()
}
