package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records every event pushed to it.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (c *fakeConn) SendEvent(evt Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("send failed")
	}
	c.events = append(c.events, evt)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) eventsOfType(t string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, evt := range c.events {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

func TestRegisterUnregister_LeavesNoHandles(t *testing.T) {
	t.Parallel()

	r := NewPresenceRegistry()
	userID := uuid.New()
	conn := &fakeConn{}

	r.Register(userID, conn)
	assert.Len(t, r.ActiveHandles(userID), 1)

	r.Unregister(conn)
	assert.Empty(t, r.ActiveHandles(userID))
	assert.Empty(t, r.OnlineUserIDs())
}

func TestUnregister_UnknownHandleIsNoop(t *testing.T) {
	t.Parallel()

	r := NewPresenceRegistry()
	r.Unregister(&fakeConn{})
	assert.Empty(t, r.OnlineUserIDs())
}

func TestRegister_MultiDeviceSetSemantics(t *testing.T) {
	t.Parallel()

	r := NewPresenceRegistry()
	userID := uuid.New()
	phone := &fakeConn{}
	laptop := &fakeConn{}

	r.Register(userID, phone)
	r.Register(userID, laptop)
	assert.Len(t, r.ActiveHandles(userID), 2)

	// Dropping one device must not touch the other.
	r.Unregister(phone)
	handles := r.ActiveHandles(userID)
	require.Len(t, handles, 1)
	assert.Same(t, laptop, handles[0].(*fakeConn))
}

func TestPresenceBroadcasts(t *testing.T) {
	t.Parallel()

	r := NewPresenceRegistry()
	alice, bob := uuid.New(), uuid.New()
	aliceConn := &fakeConn{}
	bobConn := &fakeConn{}

	r.Register(alice, aliceConn)
	r.Register(bob, bobConn)

	// Alice was already connected, so she hears that bob came online.
	online := aliceConn.eventsOfType(EventPresenceOnline)
	require.Len(t, online, 1)
	assert.Equal(t, bob.String(), online[0].UserID)

	// Bob's own connect must not echo back to him.
	assert.Empty(t, bobConn.eventsOfType(EventPresenceOnline))

	// The new connection gets a snapshot naming everyone online.
	snaps := bobConn.eventsOfType(EventPresenceSnapshot)
	require.Len(t, snaps, 1)
	assert.ElementsMatch(t, []string{alice.String(), bob.String()}, snaps[0].UserIDs)

	r.Unregister(bobConn)
	offline := aliceConn.eventsOfType(EventPresenceOffline)
	require.Len(t, offline, 1)
	assert.Equal(t, bob.String(), offline[0].UserID)
}

func TestSecondDevice_NoDuplicateOnlineEvent(t *testing.T) {
	t.Parallel()

	r := NewPresenceRegistry()
	alice, bob := uuid.New(), uuid.New()
	aliceConn := &fakeConn{}

	r.Register(alice, aliceConn)
	r.Register(bob, &fakeConn{})
	r.Register(bob, &fakeConn{})

	// One online event for bob's first device only; offline only after the
	// last device disconnects.
	assert.Len(t, aliceConn.eventsOfType(EventPresenceOnline), 1)
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	t.Parallel()

	r := NewPresenceRegistry()
	userID := uuid.New()
	keeper := &fakeConn{}
	r.Register(userID, keeper)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &fakeConn{}
			r.Register(userID, c)
			r.Unregister(c)
		}()
	}
	wg.Wait()

	// Churn on other handles never drops an unrelated handle.
	handles := r.ActiveHandles(userID)
	require.Len(t, handles, 1)
	assert.Same(t, keeper, handles[0].(*fakeConn))
}

func TestActiveHandles_OfflineUserIsEmptyNotError(t *testing.T) {
	t.Parallel()

	r := NewPresenceRegistry()
	assert.Empty(t, r.ActiveHandles(uuid.New()))
}
