// Package store tracks upload-session status so the UI can poll batch
// progress. Sessions are short-lived; entries expire or are deleted when the
// session closes.
package store

import (
	"context"
	"sync"
	"time"
)

// Session phases
const (
	PhaseUploading = "uploading"
	PhaseSyncing   = "syncing"
	PhaseDone      = "done"
	PhaseCancelled = "cancelled"
)

// SessionStatus is a snapshot of one upload session's progress
type SessionStatus struct {
	Phase     string     `json:"phase"`
	Processed int        `json:"processed"`
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Message   string     `json:"message,omitempty"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
}

// StatusStore persists session snapshots
type StatusStore interface {
	Set(ctx context.Context, sessionID string, st SessionStatus) error
	Get(ctx context.Context, sessionID string) (SessionStatus, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStatus is the in-process StatusStore, used when no Redis backend is
// configured and in tests.
type MemoryStatus struct {
	mu       sync.RWMutex
	sessions map[string]SessionStatus
}

func NewMemoryStatus() *MemoryStatus {
	return &MemoryStatus{sessions: make(map[string]SessionStatus)}
}

var _ StatusStore = (*MemoryStatus)(nil)

func (s *MemoryStatus) Set(_ context.Context, sessionID string, st SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = st
	return nil
}

func (s *MemoryStatus) Get(_ context.Context, sessionID string) (SessionStatus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	return st, ok, nil
}

func (s *MemoryStatus) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
