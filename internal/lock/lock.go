package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrHeld means another caller already holds the key.
var ErrHeld = errors.New("key is already locked")

// Release gives a held key back. It is safe to call more than once.
type Release func()

// Locker hands out at most one holder per key. Acquire never waits for the
// key: it either takes it or fails with ErrHeld.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// Keyed is an in-process Locker.
type Keyed struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewKeyed() *Keyed {
	return &Keyed{held: make(map[string]struct{})}
}

func (k *Keyed) Acquire(ctx context.Context, key string) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.held[key]; ok {
		return nil, ErrHeld
	}
	k.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			k.mu.Lock()
			delete(k.held, key)
			k.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently taken.
func (k *Keyed) Held(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.held[key]
	return ok
}

// Chain takes every locker in order. If one fails the keys already taken are
// released.
type Chain []Locker

func (c Chain) Acquire(ctx context.Context, key string) (Release, error) {
	releases := make([]Release, 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, l := range c {
		if l == nil {
			continue
		}
		rel, err := l.Acquire(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, rel)
	}
	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}
