// internal/domain/identity/provider_test.go
package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentReturnsACopy(t *testing.T) {
	p := NewSessionProvider()
	p.Set(&Identity{UserID: 42, Email: "a@example.com"})

	got := p.Current()
	require.NotNil(t, got)
	got.Email = "mutated@example.com"

	assert.Equal(t, "a@example.com", p.Current().Email)
}

func TestSetNotifiesSubscribers(t *testing.T) {
	p := NewSessionProvider()

	var events []*Identity
	p.Subscribe(func(id *Identity) {
		events = append(events, id)
	})

	p.Set(&Identity{UserID: 42})
	p.Clear()

	require.Len(t, events, 2)
	require.NotNil(t, events[0])
	assert.Equal(t, uint(42), events[0].UserID)
	assert.Nil(t, events[1])
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	p := NewSessionProvider()

	calls := 0
	unsubscribe := p.Subscribe(func(*Identity) { calls++ })

	p.Set(&Identity{UserID: 1})
	unsubscribe()
	p.Set(&Identity{UserID: 2})

	assert.Equal(t, 1, calls)
}

func TestSubscriberMayCallBackIntoProvider(t *testing.T) {
	p := NewSessionProvider()

	var seen *Identity
	p.Subscribe(func(*Identity) {
		seen = p.Current()
	})

	p.Set(&Identity{UserID: 7})
	require.NotNil(t, seen)
	assert.Equal(t, uint(7), seen.UserID)
}
