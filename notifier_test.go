package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	session "github.com/educenter/go-session"
)

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	b := session.NewBroadcast()

	var first, second []string
	b.Subscribe(func(cred string) { first = append(first, cred) })
	b.Subscribe(func(cred string) { second = append(second, cred) })

	b.Emit("tok-1")
	b.Emit("tok-2")

	assert.Equal(t, []string{"tok-1", "tok-2"}, first)
	assert.Equal(t, []string{"tok-1", "tok-2"}, second)
}

func TestBroadcastUnsubscribeStopsDelivery(t *testing.T) {
	b := session.NewBroadcast()

	var got []string
	unsubscribe := b.Subscribe(func(cred string) { got = append(got, cred) })

	b.Emit("tok-1")
	unsubscribe()
	b.Emit("tok-2")

	assert.Equal(t, []string{"tok-1"}, got)
	assert.Zero(t, b.Len())

	// Double unsubscribe is harmless.
	unsubscribe()
}

func TestOnCredentialRefreshedObservesBroadcast(t *testing.T) {
	m := session.New(&MockGateway{}, session.NewMemoryStore(),
		session.WithLogger(quietLogger{}))
	defer m.Close()

	var got []string
	unsubscribe := m.OnCredentialRefreshed(func(cred string) { got = append(got, cred) })

	m.Notifier().Emit("tok-1")
	unsubscribe()
	m.Notifier().Emit("tok-2")

	assert.Equal(t, []string{"tok-1"}, got)
}

func TestBroadcastNilSubscriberIsIgnored(t *testing.T) {
	b := session.NewBroadcast()
	unsubscribe := b.Subscribe(nil)
	assert.Zero(t, b.Len())
	unsubscribe()

	// Emit with no subscribers is a no-op.
	b.Emit("tok-1")
}
