package solver

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session carries the per-solve state that spec.md's design notes call
// out as a historical global mutable: the daily remote-call counter. A
// Session is created at the entry point and discarded at the end of a
// solve (or reused across solves within one process by the caller, which
// is what makes the midnight reset meaningful) — there is no package-level
// singleton.
type Session struct {
	ID              string
	DailyQuota      int
	mu              sync.Mutex
	remoteCallsToday int
	quotaDay        string
}

// NewSession creates a session with a fresh quota window.
func NewSession(dailyQuota int) *Session {
	return &Session{
		ID:         uuid.NewString(),
		DailyQuota: dailyQuota,
		quotaDay:   dayKey(time.Now()),
	}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// TryConsumeRemoteCall reports whether a remote call is still within the
// daily quota, incrementing the counter if so. The window resets at UTC
// midnight.
func (s *Session) TryConsumeRemoteCall(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := dayKey(now)
	if today != s.quotaDay {
		s.quotaDay = today
		s.remoteCallsToday = 0
	}
	if s.remoteCallsToday >= s.DailyQuota {
		return false
	}
	s.remoteCallsToday++
	return true
}

// RemoteCallsToday reports the current window's usage, for observability.
func (s *Session) RemoteCallsToday() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteCallsToday
}
