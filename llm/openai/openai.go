// Package openai implements the generation provider on the OpenAI API.
package openai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agrivaani/agrivaani"
)

// Generator streams chat completions from OpenAI.
type Generator struct {
	client *openai.Client
	model  string
}

// New creates an OpenAI-backed generator.
func New(apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, agrivaani.NewConfigurationError("OpenAI API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Generator{client: openai.NewClient(apiKey), model: model}, nil
}

// GenerateStream opens a streaming completion for the assembled prompt.
func (g *Generator) GenerateStream(ctx context.Context, prompt string) (agrivaani.ReplyStream, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, agrivaani.NewUpstreamError("opening completion stream", err)
	}
	return &replyStream{stream: stream}, nil
}

type replyStream struct {
	stream *openai.ChatCompletionStream
}

// Recv returns the next text fragment. Chunks without content are skipped;
// io.EOF marks a normal end of stream.
func (s *replyStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
	}
}

func (s *replyStream) Close() error {
	return s.stream.Close()
}
