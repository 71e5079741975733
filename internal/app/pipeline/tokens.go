package pipeline

import "sync"

// ResourceSession is the token resource shared by every AI stage of a session,
// so transcribe and transform of one session never overlap.
const ResourceSession = "session"

// Key identifies one exclusive resource
type Key struct {
	Resource string
	ID       int64
}

// Tokens is an in-flight registry. At most one holder per key.
type Tokens struct {
	mu   sync.Mutex
	held map[Key]struct{}
}

// NewTokens creates an empty registry
func NewTokens() *Tokens {
	return &Tokens{held: make(map[Key]struct{})}
}

// Acquire takes the token for k. ok is false when it is already held.
// release is idempotent.
func (t *Tokens) Acquire(k Key) (release func(), ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.held[k]; busy {
		return nil, false
	}
	t.held[k] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.held, k)
			t.mu.Unlock()
		})
	}, true
}

// Held reports whether k is currently taken
func (t *Tokens) Held(k Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.held[k]
	return ok
}
