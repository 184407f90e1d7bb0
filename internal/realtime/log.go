package realtime

import (
	"slices"
	"strings"
	"sync"

	"github.com/pliu/eventplanner/internal/models"
)

// MessageLog merges history fetched over HTTP with live broadcasts. A message
// seen twice is kept once.
type MessageLog struct {
	mu   sync.Mutex
	byID map[string]models.Message
}

func NewMessageLog() *MessageLog {
	return &MessageLog{byID: make(map[string]models.Message)}
}

// Add stores msgs and returns how many were new.
func (l *MessageLog) Add(msgs ...models.Message) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	added := 0
	for _, m := range msgs {
		if _, ok := l.byID[m.ID]; ok {
			continue
		}
		l.byID[m.ID] = m
		added++
	}
	return added
}

// Messages returns the log oldest first.
func (l *MessageLog) Messages() []models.Message {
	l.mu.Lock()
	out := make([]models.Message, 0, len(l.byID))
	for _, m := range l.byID {
		out = append(out, m)
	}
	l.mu.Unlock()

	slices.SortFunc(out, func(a, b models.Message) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID)
}
