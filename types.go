package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Gateway is the remote authority boundary. The core only consumes it; the
// credential it hands back is opaque and validated remotely.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*AuthPayload, error)
	LoginElevated(ctx context.Context, email, password string) (*AuthPayload, error)
	Refresh(ctx context.Context) (*AuthPayload, error)
}

// AuthPayload is a decoded, role-normalized response from the remote
// authority. Refresh responses may omit the user.
type AuthPayload struct {
	User        *User
	AccessToken string
}

// Store is the durable key/value adapter behind the session. A missing key
// reads back as an empty string with a nil error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
