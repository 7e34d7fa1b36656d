package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// localDeviceLocker implements DeviceLocker with one channel semaphore per key.
// Entries are reference counted and dropped once no goroutine holds or waits
// for them.
type localDeviceLocker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocalDeviceLocker creates an in-process DeviceLocker. It serializes
// callers within a single instance only.
func NewLocalDeviceLocker() DeviceLocker {
	return &localDeviceLocker{entries: make(map[string]*lockEntry)}
}

// Lock acquires the per-device lock or returns ctx.Err().
func (l *localDeviceLocker) Lock(ctx context.Context, subjectID uuid.UUID, deviceID string) (func(), error) {
	key := lockKey(subjectID, deviceID)
	entry := l.acquire(key)

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.release(key, entry)
		})
	}, nil
}

func (l *localDeviceLocker) acquire(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (l *localDeviceLocker) release(key string, entry *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}

// size returns the number of tracked keys.
func (l *localDeviceLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
