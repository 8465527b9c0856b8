package services

import (
	"context"
	"sync"

	"github.com/codeforchange/hackportal/internal/feed"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]feed.Event
	err    error
}

func newRecorder() *recordingPublisher {
	return &recordingPublisher{events: make(map[string][]feed.Event)}
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, ev feed.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events[topic] = append(r.events[topic], ev)
	return nil
}

func (r *recordingPublisher) on(topic string) []feed.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]feed.Event(nil), r.events[topic]...)
}
