package persistence

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/felixbrock/promptenhancer/internal/domain"
	"github.com/felixbrock/promptenhancer/internal/log"
)

const DefaultSessionTTL = 30 * time.Minute

type sessionEntry struct {
	mu       sync.Mutex
	session  domain.Session
	lastSeen time.Time
	inUse    int
}

// SessionRepo keeps sessions in process memory. An acquired session stays
// locked until it is released, so actions of one session never overlap.
type SessionRepo struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	ttl     time.Duration
	now     func() time.Time

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewSessionRepo(ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	r := &SessionRepo{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	r.wg.Add(1)
	go r.janitor(sweepInterval(ttl))

	return r
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return ttl
	}
	return time.Minute
}

// Acquire returns the session stored under id and locks it. Unknown or
// malformed ids get a new session with a fresh id.
func (r *SessionRepo) Acquire(id string) domain.Session {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || uuid.Validate(id) != nil {
		id = uuid.NewString()
		e = &sessionEntry{session: domain.Session{Id: id}}
		r.entries[id] = e
		log.With(zap.String("session_id", id)).Debug("session created")
	}
	e.inUse++
	e.lastSeen = r.now()
	r.mu.Unlock()

	e.mu.Lock()
	return e.session
}

// Release stores s and unlocks it. Releasing a session that was not acquired
// is a no-op.
func (r *SessionRepo) Release(s domain.Session) {
	r.mu.Lock()
	e, ok := r.entries[s.Id]
	if !ok || e.inUse == 0 {
		r.mu.Unlock()
		return
	}
	e.session = s
	e.lastSeen = r.now()
	e.inUse--
	r.mu.Unlock()

	e.mu.Unlock()
}

func (r *SessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were dropped. Sessions currently acquired are kept.
func (r *SessionRepo) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	n := 0
	for id, e := range r.entries {
		if e.inUse == 0 && e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}

	return n
}

func (r *SessionRepo) janitor(interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.With(zap.Int("count", n)).Debug("sessions expired")
			}
		}
	}
}

func (r *SessionRepo) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}
