package agrivaani

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Pipeline orchestrates one streamed reply: detection, context assembly,
// enrichment, streamed generation, persistence and completion signaling.
type Pipeline struct {
	conversations ConversationStore
	facts         MemoryStore
	resetter      Resetter
	enricher      Enricher
	generator     Generator
	historyLimit  int
	logger        *slog.Logger
	now           func() time.Time
}

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Conversations ConversationStore
	Facts         MemoryStore
	Resetter      Resetter
	Enricher      Enricher
	Generator     Generator

	// HistoryLimit caps the recent messages fed to the prompt. Defaults to 5.
	HistoryLimit int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now defaults to time.Now. Injectable for tests.
	Now func() time.Time
}

// NewPipeline creates a streaming reply pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		conversations: cfg.Conversations,
		facts:         cfg.Facts,
		resetter:      cfg.Resetter,
		enricher:      cfg.Enricher,
		generator:     cfg.Generator,
		historyLimit:  cfg.HistoryLimit,
		logger:        cfg.Logger,
		now:           cfg.Now,
	}
}

// Stream runs one request: it validates the prompt, streams token events to
// sink as generation fragments arrive, and ends the sequence with exactly
// one done or error event. Tokens already delivered before a failure are not
// retracted; the client treats a mid-stream error as "reply incomplete".
func (p *Pipeline) Stream(ctx context.Context, req StreamRequest, sink EventSink) {
	trimmed := strings.TrimSpace(req.Prompt)
	if trimmed == "" {
		p.send(sink, ErrorEvent("Empty prompt"))
		return
	}

	langCode := Detect(trimmed, req.LangOverride)
	speechLang := ToSpeechLocale(langCode)
	ttsLang := ToTTSLanguage(langCode)

	// Persist the user message before retrieval so this turn's context does
	// not include it, but it survives even if generation fails. Best-effort:
	// a failed append must not cost the user their reply.
	userMsg := Message{Text: trimmed, Role: RoleUser, Language: langCode, CreatedAt: p.now()}
	if err := p.conversations.Append(ctx, userMsg); err != nil {
		p.logger.Warn("failed to persist user message", "error", err)
	}

	history, err := p.conversations.Recent(ctx, p.historyLimit)
	if err != nil {
		p.logger.Error("failed to load history", "error", err)
		p.send(sink, ErrorEvent("Could not load conversation history"))
		return
	}

	facts, err := p.facts.All(ctx)
	if err != nil {
		p.logger.Error("failed to load facts", "error", err)
		p.send(sink, ErrorEvent("Could not load remembered facts"))
		return
	}

	snapshot := Snapshot{Timezone: "UTC", City: "Unknown"}
	if req.Location != nil && p.enricher != nil {
		snapshot = p.enricher.Enrich(ctx, req.Location.Lat, req.Location.Lon)
	}

	prompt := AssemblePrompt(PromptInput{
		Language: langCode,
		History:  history,
		Facts:    facts,
		Location: snapshot,
		Now:      p.now(),
	}, trimmed)

	p.logger.Debug("generating reply",
		slog.String("language", langCode),
		slog.Int("history", len(history)),
		slog.Int("facts", len(facts)),
	)

	stream, err := p.generator.GenerateStream(ctx, prompt)
	if err != nil {
		p.logger.Error("generation call failed", "error", err)
		p.send(sink, ErrorEvent("Reply generation failed"))
		return
	}
	defer stream.Close()

	// One fragment in flight: each fragment is forwarded and flushed before
	// the next Recv, so a slow provider throttles delivery directly.
	var reply strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if disconnected(ctx, err) {
				p.logger.Info("client disconnected mid-stream")
				p.persistPartial(langCode, reply.String())
				return
			}
			p.logger.Error("generation stream failed", "error", err)
			p.send(sink, ErrorEvent("Reply generation failed"))
			return
		}
		if fragment == "" {
			continue
		}
		reply.WriteString(fragment)
		if err := sink.Send(TokenEvent(fragment, speechLang, ttsLang)); err != nil {
			// The client went away; stop forwarding and keep what it saw.
			p.logger.Info("client disconnected mid-stream", "error", err)
			p.persistPartial(langCode, reply.String())
			return
		}
	}

	assistantMsg := Message{Text: reply.String(), Role: RoleAssistant, Language: langCode, CreatedAt: p.now()}
	if err := p.conversations.Append(ctx, assistantMsg); err != nil {
		// Reply delivery takes precedence over durability.
		p.logger.Warn("failed to persist assistant message", "error", err)
	}

	p.send(sink, DoneEvent())
}

// persistPartial stores what the client already saw of an interrupted reply
// so the durable history matches the displayed conversation.
func (p *Pipeline) persistPartial(langCode, text string) {
	if text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := Message{Text: text, Role: RoleAssistant, Language: langCode, CreatedAt: p.now()}
	if err := p.conversations.Append(ctx, msg); err != nil {
		p.logger.Warn("failed to persist partial reply", "error", err)
	}
}

// Reset empties both stores. Either both are cleared or an error is
// returned.
func (p *Pipeline) Reset(ctx context.Context) error {
	return p.resetter.Reset(ctx)
}

func (p *Pipeline) send(sink EventSink, event StreamEvent) {
	if err := sink.Send(event); err != nil {
		p.logger.Warn("failed to deliver event", "error", err)
	}
}

// disconnected reports whether a stream error was caused by the client
// going away rather than by the provider.
func disconnected(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
