package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/voiceloop/config"
	"github.com/BaSui01/voiceloop/llm"
	"github.com/BaSui01/voiceloop/llm/factory"
	"github.com/BaSui01/voiceloop/tts"
)

// RPC method names exposed to connected clients.
const (
	rpcUpdateSystemPrompt = "update_system_prompt"
	rpcInterrupt          = "interrupt"
)

// BackendMetrics records LLM and TTS round trips. Nil disables recording.
type BackendMetrics interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
	RecordTTSRequest(engine, status string, duration time.Duration)
}

// generation is one cancellable turn. Cleanup compares pointers so a
// superseded turn can only release its own scope, never its successor's.
type generation struct {
	cancel context.CancelFunc
}

// Session orchestrates one conversation in one room: it resolves the LLM
// and TTS backends from configuration, registers the control RPCs, and
// runs the generation pipeline for inbound user text.
type Session struct {
	id      string
	agent   *Agent
	llm     llm.Provider
	model   string
	tts     tts.Provider // nil when degraded to text-only
	room    RoomControl
	metrics BackendMetrics
	logger  *zap.Logger

	histMu  sync.Mutex
	history []llm.Message

	genMu sync.Mutex
	gen   *generation
}

// NewSession resolves backends for a freshly connected room. Configuration
// is passed in as a snapshot taken at connection time, so changes made via
// the control service between sessions take effect here.
//
// An unreachable TTS engine degrades the session to text-only. An unknown
// engine name is a configuration error and aborts the session.
func NewSession(ctx context.Context, room RoomControl, cfg config.Config, metrics BackendMetrics, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("session_id", id))

	provider, model := factory.ProviderForModel(cfg.LLM.Model, logger)
	logger.Info("llm backend resolved",
		zap.String("provider", provider.Name()),
		zap.String("model", model))

	ttsProvider, err := resolveTTS(ctx, &cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:      id,
		agent:   NewAgent(cfg.App.DefaultSystemPrompt),
		llm:     provider,
		model:   model,
		tts:     ttsProvider,
		room:    room,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// resolveTTS maps the active voice to its engine and selects a client.
// The text_only sentinel and an unavailable engine both yield nil.
func resolveTTS(ctx context.Context, cfg *config.Config, logger *zap.Logger) (tts.Provider, error) {
	if cfg.TTS.Voice == config.VoiceTextOnly {
		logger.Info("voice set to text_only, audio output disabled")
		return nil, nil
	}

	voice, ok := cfg.FindVoice(cfg.TTS.Voice)
	if !ok {
		return nil, fmt.Errorf("active voice %q not in catalog", cfg.TTS.Voice)
	}

	provider, err := tts.SelectEngine(ctx, voice.Engine, &cfg.TTS, logger)
	if err != nil {
		if errors.Is(err, tts.ErrEngineUnavailable) {
			// warning already logged by the selector
			return nil, nil
		}
		return nil, err
	}
	return provider, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// TextOnly reports whether the session runs without audio output.
func (s *Session) TextOnly() bool { return s.tts == nil }

// StartOptions returns the per-session room options: no inbound audio
// (the browser does its own recognition), outbound audio only when a TTS
// client was obtained, text both ways, and room teardown on close.
func (s *Session) StartOptions() StartOptions {
	return StartOptions{
		AudioInput:        false,
		AudioOutput:       s.tts != nil,
		TextInput:         true,
		TextOutput:        true,
		CloseOnDisconnect: true,
	}
}

// Start registers the control RPCs and the inbound text handler, then
// applies the session's room options. Must run after the transport
// reports connected.
func (s *Session) Start(ctx context.Context) error {
	if err := s.room.RegisterRPC(rpcUpdateSystemPrompt, s.handleUpdateSystemPrompt); err != nil {
		return fmt.Errorf("failed to register %s: %w", rpcUpdateSystemPrompt, err)
	}
	if err := s.room.RegisterRPC(rpcInterrupt, s.handleInterrupt); err != nil {
		return fmt.Errorf("failed to register %s: %w", rpcInterrupt, err)
	}

	s.room.OnText(TopicChat, s.HandleUserText)

	if err := s.room.Configure(s.StartOptions()); err != nil {
		return fmt.Errorf("failed to configure room: %w", err)
	}

	s.logger.Info("session started", zap.Bool("text_only", s.TextOnly()))
	return nil
}

// Close cancels any in-flight generation. Room teardown itself is owned
// by the transport layer.
func (s *Session) Close() {
	s.Interrupt()
}

func (s *Session) handleUpdateSystemPrompt(ctx context.Context, callerIdentity, payload string) (string, error) {
	s.agent.UpdateInstructions(payload)
	s.logger.Info("system prompt updated",
		zap.String("caller", callerIdentity),
		zap.Int("length", len(payload)))
	return "ok", nil
}

// handleInterrupt requests cancellation of any in-flight generation.
// Interrupting when nothing is generating is a no-op, not an error; the
// RPC reports "ok" either way.
func (s *Session) handleInterrupt(ctx context.Context, callerIdentity, payload string) (string, error) {
	if s.Interrupt() {
		s.logger.Info("generation interrupted", zap.String("caller", callerIdentity))
	} else {
		s.logger.Debug("interrupt with no active generation", zap.String("caller", callerIdentity))
	}
	return "ok", nil
}

// Interrupt cancels the in-flight generation, if any. Reports whether
// anything was actually cancelled.
func (s *Session) Interrupt() bool {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gen == nil {
		return false
	}
	s.gen.cancel()
	s.gen = nil
	return true
}

// beginGeneration opens a cancellable scope for one generation. A new
// user turn supersedes any generation still in flight.
func (s *Session) beginGeneration(ctx context.Context) (context.Context, *generation) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gen != nil {
		s.gen.cancel()
	}
	genCtx, cancel := context.WithCancel(ctx)
	s.gen = &generation{cancel: cancel}
	return genCtx, s.gen
}

// endGeneration releases one turn's scope. A superseded turn finishes
// after its successor has already taken over s.gen, so only the owner
// may clear it.
func (s *Session) endGeneration(gen *generation) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	gen.cancel()
	if s.gen == gen {
		s.gen = nil
	}
}

// HandleUserText runs the generation pipeline for one inbound user
// message: LLM chat with the current instructions and history, response
// text published on the transcription topic, and, when a TTS client is
// present, synthesized audio published on the room's audio track.
func (s *Session) HandleUserText(ctx context.Context, senderIdentity, text string) {
	if text == "" {
		return
	}

	genCtx, gen := s.beginGeneration(ctx)
	defer s.endGeneration(gen)

	s.logger.Debug("user text received",
		zap.String("sender", senderIdentity),
		zap.Int("length", len(text)))

	messages := s.buildMessages(text)
	start := time.Now()
	resp, err := s.llm.Chat(genCtx, &llm.ChatRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		s.recordLLM(err, time.Since(start), llm.ChatUsage{})
		if genCtx.Err() != nil {
			s.logger.Debug("generation cancelled")
			return
		}
		s.logger.Error("generation failed", zap.Error(err))
		return
	}
	s.recordLLM(nil, time.Since(start), resp.Usage)

	s.appendTurn(text, resp.Content)

	// text and speech go out concurrently; a synthesis failure loses
	// audio for this turn, not the session
	g, gCtx := errgroup.WithContext(genCtx)
	g.Go(func() error {
		if err := s.room.PublishText(gCtx, TopicTranscription, resp.Content); err != nil {
			s.logger.Error("failed to publish response text", zap.Error(err))
		}
		return nil
	})
	if s.tts != nil {
		g.Go(func() error {
			s.speak(gCtx, resp.Content)
			return nil
		})
	}
	g.Wait()
}

func (s *Session) speak(ctx context.Context, text string) {
	start := time.Now()
	audio, err := s.tts.Synthesize(ctx, &tts.Request{Text: text})
	s.recordTTS(err, time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("speech synthesis cancelled")
			return
		}
		s.logger.Warn("speech synthesis failed", zap.Error(err))
		return
	}
	defer audio.Audio.Close()

	if err := s.room.PublishAudio(ctx, audio.Audio, audio.Format); err != nil && ctx.Err() == nil {
		s.logger.Warn("failed to publish audio", zap.Error(err))
	}
}

func (s *Session) recordLLM(err error, elapsed time.Duration, usage llm.ChatUsage) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordLLMRequest(s.llm.Name(), s.model, callStatus(err), elapsed,
		usage.PromptTokens, usage.CompletionTokens)
}

func (s *Session) recordTTS(err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordTTSRequest(s.tts.Name(), callStatus(err), elapsed)
}

func callStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// buildMessages assembles system prompt + history + the new user turn.
// Instructions are read per generation so a prompt update applies to the
// next turn without restarting the session.
func (s *Session) buildMessages(userText string) []llm.Message {
	s.histMu.Lock()
	defer s.histMu.Unlock()

	messages := make([]llm.Message, 0, len(s.history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.agent.Instructions()})
	messages = append(messages, s.history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userText})
	return messages
}

func (s *Session) appendTurn(userText, assistantText string) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	s.history = append(s.history,
		llm.Message{Role: llm.RoleUser, Content: userText},
		llm.Message{Role: llm.RoleAssistant, Content: assistantText})
}
