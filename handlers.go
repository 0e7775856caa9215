package agrivaani

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP surface of the assistant.
type Server struct {
	pipeline       *Pipeline
	synthesizer    Synthesizer
	conversations  ConversationStore
	facts          MemoryStore
	logger         *slog.Logger
	allowedOrigins []string
}

// ServerConfig wires the server's collaborators.
type ServerConfig struct {
	Pipeline      *Pipeline
	Synthesizer   Synthesizer
	Conversations ConversationStore
	Facts         MemoryStore

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// AllowedOrigins for CORS. Defaults to allowing all origins.
	AllowedOrigins []string
}

// NewServer creates the HTTP handler for the assistant.
func NewServer(cfg ServerConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		pipeline:       cfg.Pipeline,
		synthesizer:    cfg.Synthesizer,
		conversations:  cfg.Conversations,
		facts:          cfg.Facts,
		logger:         cfg.Logger,
		allowedOrigins: cfg.AllowedOrigins,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(recoverMiddleware(s.logger))
	r.Use(bodyLimitMiddleware(maxBodyBytes))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/stream", s.handleStream)
	r.Get("/ws", s.handleWebSocket)
	r.Post("/tts", s.handleTTS)
	r.Post("/new-chat", s.handleReset)
	r.Get("/messages", s.handleMessages)
	r.Get("/memory", s.handleListFacts)
	r.Post("/memory", s.handleAddFact)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStream serves the SSE streaming endpoint. Validation failures are
// reported as an SSE error frame rather than an HTTP error so the client
// always consumes one event sequence.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req StreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	sink := &sseSink{w: w, flusher: flusher}
	s.pipeline.Stream(r.Context(), req, sink)
}

// sseSink writes stream events as server-sent event frames, flushing each
// one immediately.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSink) Send(event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// TTSRequest is the body of a synthesis request.
type TTSRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// TTSResponse is a successful synthesis response.
type TTSResponse struct {
	Success     bool   `json:"success"`
	AudioBase64 string `json:"audioBase64"`
	MimeType    string `json:"mimeType"`
	Language    string `json:"language"`
}

// TTSErrorResponse tells the client whether to fall back to a local
// synthesis path.
type TTSErrorResponse struct {
	Error    string `json:"error"`
	Fallback bool   `json:"fallback"`
	Language string `json:"language,omitempty"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	audio, err := s.synthesizer.Synthesize(r.Context(), req.Text, language)
	if err != nil {
		s.respondTTSError(w, err, language)
		return
	}

	respondJSON(w, http.StatusOK, TTSResponse{
		Success:     true,
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		MimeType:    "audio/wav",
		Language:    language,
	})
}

func (s *Server) respondTTSError(w http.ResponseWriter, err error, language string) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		s.logger.Error("synthesis failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, TTSErrorResponse{
			Error:    "Speech synthesis failed",
			Fallback: true,
			Language: language,
		})
		return
	}

	switch apiErr.Code {
	case ErrCodeValidation:
		respondError(w, http.StatusBadRequest, apiErr.Message)
	case ErrCodeConfiguration:
		s.logger.Error("synthesis misconfigured", "error", err)
		respondJSON(w, http.StatusInternalServerError, TTSErrorResponse{
			Error:    apiErr.Message,
			Fallback: true,
			Language: language,
		})
	default:
		s.logger.Error("synthesis failed", "error", err)
		status := apiErr.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		respondJSON(w, status, TTSErrorResponse{
			Error:    apiErr.Message,
			Fallback: true,
			Language: language,
		})
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Reset(r.Context()); err != nil {
		s.logger.Error("reset failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Server error while clearing chat")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.conversations.All(r.Context())
	if err != nil {
		s.logger.Error("failed to load messages", "error", err)
		respondError(w, http.StatusInternalServerError, "Could not load messages")
		return
	}
	if messages == nil {
		messages = []Message{}
	}
	respondJSON(w, http.StatusOK, messages)
}

func (s *Server) handleListFacts(w http.ResponseWriter, r *http.Request) {
	facts, err := s.facts.All(r.Context())
	if err != nil {
		s.logger.Error("failed to load facts", "error", err)
		respondError(w, http.StatusInternalServerError, "Could not load facts")
		return
	}
	if facts == nil {
		facts = []Fact{}
	}
	respondJSON(w, http.StatusOK, facts)
}

func (s *Server) handleAddFact(w http.ResponseWriter, r *http.Request) {
	var fact Fact
	if err := json.NewDecoder(r.Body).Decode(&fact); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fact.Key == "" {
		respondError(w, http.StatusBadRequest, "Key is required")
		return
	}

	if err := s.facts.Append(r.Context(), fact); err != nil {
		s.logger.Error("failed to store fact", "error", err)
		respondError(w, http.StatusInternalServerError, "Could not store fact")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
