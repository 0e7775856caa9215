package agrivaani

import (
	"context"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation log. Messages are immutable once
// appended; ordering is defined by CreatedAt, not by arrival order at the
// store.
type Message struct {
	Text      string    `json:"text"`
	Role      Role      `json:"role"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}

// Fact is a remembered key/value pair injected into every prompt.
type Fact struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Coordinates is a latitude/longitude pair supplied by the client.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// StreamRequest is an incoming request on the streaming endpoint.
type StreamRequest struct {
	Prompt       string       `json:"prompt"`
	Location     *Coordinates `json:"location,omitempty"`
	LangOverride string       `json:"langOverride,omitempty"`
}

// StreamEvent is one frame on the client connection. Exactly one terminal
// event (done or error) ends a request's sequence; any number of token
// events may precede it.
type StreamEvent struct {
	Token       string `json:"token,omitempty"`
	Language    string `json:"language,omitempty"`
	ReverieLang string `json:"reverieLang,omitempty"`
	Done        bool   `json:"done,omitempty"`
	Error       string `json:"error,omitempty"`
}

// TokenEvent builds a frame carrying an incremental text fragment.
func TokenEvent(text, speechLang, ttsLang string) StreamEvent {
	return StreamEvent{Token: text, Language: speechLang, ReverieLang: ttsLang}
}

// DoneEvent is the terminal frame of a successfully completed stream.
func DoneEvent() StreamEvent { return StreamEvent{Done: true} }

// ErrorEvent is the terminal frame of a failed stream.
func ErrorEvent(message string) StreamEvent { return StreamEvent{Error: message} }

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool { return e.Done || e.Error != "" }

// EventSink delivers stream events to the client. Send must forward the
// event immediately; buffering until completion defeats the point of
// streaming.
type EventSink interface {
	Send(event StreamEvent) error
}

// ConversationStore is the append-only message log.
type ConversationStore interface {
	// Append adds a message to the log.
	Append(ctx context.Context, msg Message) error

	// Recent returns up to n most recent messages, oldest first.
	Recent(ctx context.Context, n int) ([]Message, error)

	// All returns the full log, oldest first.
	All(ctx context.Context) ([]Message, error)

	// Clear empties the log.
	Clear(ctx context.Context) error
}

// MemoryStore holds remembered facts.
type MemoryStore interface {
	Append(ctx context.Context, fact Fact) error
	All(ctx context.Context) ([]Fact, error)
	Clear(ctx context.Context) error
}

// Resetter clears the conversation and memory stores together. Either both
// are emptied or an error is returned; a partial clear is a failure.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Generator produces a streamed reply for an assembled prompt.
type Generator interface {
	// GenerateStream opens a streaming generation call. The returned stream
	// must be closed by the caller.
	GenerateStream(ctx context.Context, prompt string) (ReplyStream, error)
}

// ReplyStream is an ordered sequence of text fragments from the generator.
type ReplyStream interface {
	// Recv returns the next fragment, or io.EOF when the stream ends.
	Recv() (string, error)

	// Close releases the underlying connection. Safe to call after EOF.
	Close() error
}

// Snapshot is a bundle of local context for one coordinate pair.
type Snapshot struct {
	WeatherText string
	Timezone    string
	City        string
}

// Enricher resolves local weather, timezone and city for coordinates.
type Enricher interface {
	Enrich(ctx context.Context, lat, lon float64) Snapshot
}

// Synthesizer converts text to speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}
