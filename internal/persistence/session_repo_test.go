package persistence

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixbrock/promptenhancer/internal/domain"
)

func newTestRepo(t *testing.T, ttl time.Duration) *SessionRepo {
	t.Helper()
	r := NewSessionRepo(ttl)
	t.Cleanup(func() { require.NoError(t, r.Close()) })
	return r
}

func TestSessionRepo_AcquireCreatesSession(t *testing.T) {
	r := newTestRepo(t, time.Hour)

	for _, id := range []string{"", "not-a-uuid", uuid.NewString()} {
		s := r.Acquire(id)
		assert.NotEqual(t, id, s.Id)
		assert.NoError(t, uuid.Validate(s.Id))
		assert.Equal(t, domain.SessionState{}, s.State)
		r.Release(s)
	}

	assert.Equal(t, 3, r.Len())
}

func TestSessionRepo_ReleaseStoresState(t *testing.T) {
	r := newTestRepo(t, time.Hour)

	s := r.Acquire("")
	s.State = domain.OnGenerationSucceeded(s.State, "ENHANCED: ...")
	s.Credential = "sk-test"
	r.Release(s)

	got := r.Acquire(s.Id)
	defer r.Release(got)

	assert.Equal(t, s.Id, got.Id)
	assert.Equal(t, "ENHANCED: ...", got.State.EnhancedPrompt)
	assert.Equal(t, "sk-test", got.Credential)
}

func TestSessionRepo_SessionsAreIsolated(t *testing.T) {
	r := newTestRepo(t, time.Hour)

	a := r.Acquire("")
	a.State.EnhancedPrompt = "a"
	r.Release(a)

	b := r.Acquire("")
	defer r.Release(b)

	assert.NotEqual(t, a.Id, b.Id)
	assert.Empty(t, b.State.EnhancedPrompt)
}

func TestSessionRepo_AcquireSerialises(t *testing.T) {
	r := newTestRepo(t, time.Hour)

	s := r.Acquire("")
	id := s.Id
	r.Release(s)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := r.Acquire(id)
			s.State.EnhancedPrompt += "x"
			r.Release(s)
		}()
	}
	wg.Wait()

	s = r.Acquire(id)
	defer r.Release(s)
	assert.Len(t, s.State.EnhancedPrompt, 50)
}

func TestSessionRepo_ReleaseUnknownIsNoop(t *testing.T) {
	r := newTestRepo(t, time.Hour)

	r.Release(domain.Session{Id: uuid.NewString()})
	assert.Equal(t, 0, r.Len())
}

func TestSessionRepo_SweepExpiresIdleSessions(t *testing.T) {
	r := newTestRepo(t, time.Hour)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.mu.Lock()
	r.now = func() time.Time { return now }
	r.mu.Unlock()

	idle := r.Acquire("")
	r.Release(idle)

	busy := r.Acquire("")

	now = now.Add(2 * time.Hour)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())

	r.Release(busy)

	fresh := r.Acquire(idle.Id)
	defer r.Release(fresh)
	assert.NotEqual(t, idle.Id, fresh.Id)
}

func TestSessionRepo_JanitorStopsOnClose(t *testing.T) {
	r := NewSessionRepo(10 * time.Millisecond)

	s := r.Acquire("")
	r.Release(s)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}
