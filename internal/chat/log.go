// Package chat хранит локальную ленту командного чата на стороне потребителя:
// история и живые события сливаются без дублей, неподтвержденные
// отправки показываются до эха сервера.
package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/codeforchange/hackportal/internal/models"
	"github.com/google/uuid"
)

type Entry struct {
	models.ChatMessage
	ClientID string
	Pending  bool
}

// Log упорядочен по (created_at, id); безопасен для конкурентного использования
type Log struct {
	mu        sync.Mutex
	confirmed []models.ChatMessage
	seen      map[uuid.UUID]struct{}
	pending   []Entry
}

func NewLog() *Log {
	return &Log{seen: make(map[uuid.UUID]struct{})}
}

// Merge добавляет историю; уже известные id пропускаются
func (l *Log) Merge(history []models.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, msg := range history {
		l.insert(msg)
	}
}

// Apply добавляет подтвержденное сообщение. Если clientID совпадает
// с ожидающей отправкой, она заменяется этим сообщением.
func (l *Log) Apply(msg models.ChatMessage, clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if clientID != "" {
		l.dropPending(clientID)
	}
	return l.insert(msg)
}

// AddPending показывает сообщение до подтверждения сервером
func (l *Log) AddPending(clientID string, teamID, userID uuid.UUID, text string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		ChatMessage: models.ChatMessage{
			TeamID:    teamID,
			UserID:    userID,
			Message:   text,
			CreatedAt: time.Now().UTC(),
		},
		ClientID: clientID,
		Pending:  true,
	}
	l.pending = append(l.pending, entry)
	return entry
}

func (l *Log) Confirm(clientID string, msg models.ChatMessage) bool {
	return l.Apply(msg, clientID)
}

// Rollback убирает неудавшуюся отправку
func (l *Log) Rollback(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.dropPending(clientID)
}

// Entries подтвержденные сообщения, затем ожидающие в порядке отправки
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.confirmed)+len(l.pending))
	for _, msg := range l.confirmed {
		out = append(out, Entry{ChatMessage: msg})
	}
	return append(out, l.pending...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.confirmed) + len(l.pending)
}

func (l *Log) insert(msg models.ChatMessage) bool {
	if _, ok := l.seen[msg.ID]; ok {
		return false
	}
	l.seen[msg.ID] = struct{}{}

	i := sort.Search(len(l.confirmed), func(i int) bool {
		return less(msg, l.confirmed[i])
	})
	l.confirmed = append(l.confirmed, models.ChatMessage{})
	copy(l.confirmed[i+1:], l.confirmed[i:])
	l.confirmed[i] = msg
	return true
}

func (l *Log) dropPending(clientID string) bool {
	for i, e := range l.pending {
		if e.ClientID == clientID {
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			return true
		}
	}
	return false
}

func less(a, b models.ChatMessage) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
