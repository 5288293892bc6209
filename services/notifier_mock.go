package services

import (
	"context"
	"sync"
)

// Notification is one call recorded by MockNotifier.
type Notification struct {
	Kind    Kind
	Payload interface{}
}

// MockNotifier records notifications instead of sending them.
type MockNotifier struct {
	mu    sync.Mutex
	sent  []Notification
	Err   error
	calls int
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, kind Kind, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Notification{Kind: kind, Payload: payload})
	return nil
}

// Sent returns the successfully recorded notifications.
func (m *MockNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

// Calls returns the number of Notify calls, failed ones included.
func (m *MockNotifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
