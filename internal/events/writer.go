package events

import (
	"sync"
	"time"

	"loanline/internal/domain"
)

// Log is an append-only in-memory activity trail. Every orchestrated
// mutation appends one entry; nothing ever rewrites or removes entries.
type Log struct {
	mu      sync.RWMutex
	Now     func() time.Time
	seq     int64
	entries []domain.Event
}

type EventPayload map[string]any

func NewLog() *Log {
	return &Log{Now: time.Now}
}

// Append records an event and returns it with its assigned sequence id.
func (l *Log) Append(evtType, entityKind, entityID, actorID string, payload EventPayload) domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Now == nil {
		l.Now = time.Now
	}
	l.seq++
	e := domain.Event{
		ID:         l.seq,
		TS:         l.Now().UTC().Format(time.RFC3339Nano),
		Type:       evtType,
		EntityKind: entityKind,
		EntityID:   entityID,
		ActorID:    actorID,
		Payload:    map[string]any(payload),
	}
	l.entries = append(l.entries, e)
	return e
}

// Latest returns up to n events, newest first, optionally filtered by type,
// entity kind and entity id.
func (l *Log) Latest(n int, evtType, entityKind, entityID string) []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Event
	for i := len(l.entries) - 1; i >= 0 && (n <= 0 || len(out) < n); i-- {
		e := l.entries[i]
		if evtType != "" && e.Type != evtType {
			continue
		}
		if entityKind != "" && e.EntityKind != entityKind {
			continue
		}
		if entityID != "" && e.EntityID != entityID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len reports the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
