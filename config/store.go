package config

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store owns the in-memory configuration and its persistence. All reads go
// through Snapshot and all mutations through the Set* methods, which
// validate against the catalogs, update memory, and synchronously rewrite
// the whole file before returning. Mutations within one process are
// serialized by the store's mutex; writes from other processes are not.
type Store struct {
	path   string
	logger *zap.Logger

	mu  sync.RWMutex
	cfg Config
}

// NewStore loads the document at path and returns a store owning it.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Store{
		path:   path,
		logger: logger.With(zap.String("component", "config_store")),
		cfg:    *cfg,
	}, nil
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// SetModel activates a model from the catalog and persists the change.
// An id outside the catalog returns *UnknownIDError and leaves both memory
// and disk untouched.
func (s *Store) SetModel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !contains(s.cfg.ModelIDs(), id) {
		return &UnknownIDError{Field: "model", ID: id, Allowed: s.cfg.ModelIDs()}
	}

	prev := s.cfg.LLM.Model
	s.cfg.LLM.Model = id
	if err := s.persistLocked(); err != nil {
		s.cfg.LLM.Model = prev
		return err
	}

	s.logger.Info("active model updated",
		zap.String("previous", prev),
		zap.String("model", id))
	return nil
}

// SetVoice activates a voice from the catalog (or the text_only sentinel)
// and persists the change. An unknown id returns *UnknownIDError and leaves
// both memory and disk untouched.
func (s *Store) SetVoice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != VoiceTextOnly && !contains(s.cfg.VoiceIDs(), id) {
		allowed := append(s.cfg.VoiceIDs(), VoiceTextOnly)
		return &UnknownIDError{Field: "voice", ID: id, Allowed: allowed}
	}

	prev := s.cfg.TTS.Voice
	s.cfg.TTS.Voice = id
	if err := s.persistLocked(); err != nil {
		s.cfg.TTS.Voice = prev
		return err
	}

	s.logger.Info("active voice updated",
		zap.String("previous", prev),
		zap.String("voice", id))
	return nil
}

// persistLocked rewrites the whole document. Callers hold s.mu.
func (s *Store) persistLocked() error {
	data, err := yaml.Marshal(&s.cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to persist config to %s: %w", s.path, err)
	}
	return nil
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return s.path
}
