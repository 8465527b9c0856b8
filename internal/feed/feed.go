// Package feed реализует поток изменений строк поверх Redis pub/sub.
// Топик задается таблицей и выражением фильтра, например
// "team_chats:team_id=eq.<uuid>".
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TeamsTopic = "teams"

	channelPrefix = "feed:"
	bufferSize    = 64
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Event изменение одной строки
type Event struct {
	Type     EventType       `json:"type"`
	Table    string          `json:"table"`
	ClientID string          `json:"client_id,omitempty"`
	Record   json.RawMessage `json:"record"`
	At       time.Time       `json:"at"`
}

// NewEvent сериализует запись в событие
func NewEvent(typ EventType, table string, record any) (Event, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s record: %w", table, err)
	}
	return Event{Type: typ, Table: table, Record: raw, At: time.Now().UTC()}, nil
}

func TeamChatTopic(teamID uuid.UUID) string {
	return "team_chats:team_id=eq." + teamID.String()
}

type Feed struct {
	rdb *redis.Client
	log *zap.Logger
}

func New(rdb *redis.Client, log *zap.Logger) *Feed {
	return &Feed{rdb: rdb, log: log}
}

func (f *Feed) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := f.rdb.Publish(ctx, channelPrefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe возвращает после подтверждения подписки сервером,
// поэтому события, опубликованные после возврата, не теряются
func (f *Feed) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ps := f.rdb.Subscribe(ctx, channelPrefix+topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	sub := &Subscription{
		topic:  topic,
		ps:     ps,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
	go sub.run(f.log)
	return sub, nil
}

// Subscription должна быть закрыта вызывающей стороной
type Subscription struct {
	topic  string
	ps     *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) Topic() string {
	return s.topic
}

// Events закрывается после Close
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *Subscription) run(log *zap.Logger) {
	defer close(s.events)

	for msg := range s.ps.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Warn("dropping malformed feed event", zap.String("topic", s.topic), zap.Error(err))
			continue
		}

		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}
