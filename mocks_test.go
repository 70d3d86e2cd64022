package session_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	session "github.com/educenter/go-session"
)

// MockGateway implements session.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Login(ctx context.Context, email, password string) (*session.AuthPayload, error) {
	args := m.Called(ctx, email, password)
	payload, _ := args.Get(0).(*session.AuthPayload)
	return payload, args.Error(1)
}

func (m *MockGateway) LoginElevated(ctx context.Context, email, password string) (*session.AuthPayload, error) {
	args := m.Called(ctx, email, password)
	payload, _ := args.Get(0).(*session.AuthPayload)
	return payload, args.Error(1)
}

func (m *MockGateway) Refresh(ctx context.Context) (*session.AuthPayload, error) {
	args := m.Called(ctx)
	payload, _ := args.Get(0).(*session.AuthPayload)
	return payload, args.Error(1)
}

// recordingSink captures activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []session.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event session.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []session.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.ActivityEventType, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.EventType)
	}
	return out
}

func (r *recordingSink) has(eventType session.ActivityEventType) bool {
	for _, t := range r.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

// quietLogger silences manager output in tests.
type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

func testUser(role session.Role) *session.User {
	u := &session.User{
		ID:    "usr-100",
		Name:  "Tran Thi Mai",
		Email: "mai@example.com",
		Role:  role,
	}
	u.Normalize()
	return u
}

func authPayload(role session.Role, token string) *session.AuthPayload {
	return &session.AuthPayload{
		User:        testUser(role),
		AccessToken: token,
	}
}
