package economy

import (
	"sync"
	"time"
)

// SessionTracker remembers when users joined a voice channel. State lives
// in process memory only; minutes since the last join are lost on restart.
type SessionTracker struct {
	mu       sync.Mutex
	sessions map[string]time.Time
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{sessions: make(map[string]time.Time)}
}

func sessionKey(guildID, userID string) string {
	return guildID + "|" + userID
}

func (t *SessionTracker) Start(guildID, userID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sessionKey(guildID, userID)] = at
}

// Stop removes the session and returns its duration. The second return is
// false when no session was being tracked.
func (t *SessionTracker) Stop(guildID, userID string, at time.Time) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := sessionKey(guildID, userID)
	start, ok := t.sessions[key]
	if !ok {
		return 0, false
	}
	delete(t.sessions, key)
	return at.Sub(start), true
}

func (t *SessionTracker) Active(guildID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.sessions[sessionKey(guildID, userID)]
	return ok
}
