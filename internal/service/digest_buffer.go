package service

import (
	"sync"

	"github.com/spec-kit/notification-center/internal/domain"
)

// DigestBuffer accumulates notifications awaiting batched delivery. The
// interface is deliberately small so a durable, multi-instance queue can
// replace the in-memory implementation without touching flush logic.
type DigestBuffer interface {
	Enqueue(userID string, n domain.Notification)
	// Drain atomically swaps out and returns the user's pending queue, so
	// notifications arriving during a flush land in a fresh queue.
	Drain(userID string) []domain.Notification
	// Users lists user ids with a non-empty queue.
	Users() []string
	Size(userID string) int
}

// memoryDigestBuffer is per-instance state: a process restart loses
// unflushed digest membership. The notifications themselves stay durably
// queryable, the buffer is only a batching optimization.
type memoryDigestBuffer struct {
	mu      sync.Mutex
	pending map[string][]domain.Notification
}

// NewMemoryDigestBuffer constructs the in-memory buffer.
func NewMemoryDigestBuffer() DigestBuffer {
	return &memoryDigestBuffer{pending: make(map[string][]domain.Notification)}
}

func (b *memoryDigestBuffer) Enqueue(userID string, n domain.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[userID] = append(b.pending[userID], n)
}

func (b *memoryDigestBuffer) Drain(userID string) []domain.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.pending[userID]
	delete(b.pending, userID)
	return entries
}

func (b *memoryDigestBuffer) Users() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := make([]string, 0, len(b.pending))
	for userID := range b.pending {
		users = append(users, userID)
	}
	return users
}

func (b *memoryDigestBuffer) Size(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending[userID])
}
