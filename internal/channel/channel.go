package channel

import (
	"context"
	"time"

	"github.com/spec-kit/notification-center/internal/domain"
)

// Payload carries everything an adapter needs to deliver one notification
// to one recipient address.
type Payload struct {
	Notification *domain.Notification
	Address      string
}

// Result reports the outcome of a single delivery attempt.
type Result struct {
	Success   bool
	Channel   domain.ChannelKey
	MessageID *string
	Err       error
	Timestamp time.Time
}

// Channel is the uniform capability every delivery mechanism implements.
// The orchestrator never inspects an adapter beyond this surface.
type Channel interface {
	Key() domain.ChannelKey
	Send(ctx context.Context, payload Payload) Result
	ValidateRecipient(address string) bool
	IsAvailable() bool
}

// Registry holds the channel set, keyed by ChannelKey, built at startup.
type Registry struct {
	channels map[domain.ChannelKey]Channel
}

// NewRegistry builds a registry from the given adapters. Later adapters with
// a duplicate key replace earlier ones.
func NewRegistry(channels ...Channel) *Registry {
	reg := &Registry{channels: make(map[domain.ChannelKey]Channel, len(channels))}
	for _, ch := range channels {
		reg.channels[ch.Key()] = ch
	}
	return reg
}

// Lookup returns the adapter registered under the key.
func (r *Registry) Lookup(key domain.ChannelKey) (Channel, bool) {
	ch, ok := r.channels[key]
	return ch, ok
}

// Keys lists the registered channel keys.
func (r *Registry) Keys() []domain.ChannelKey {
	keys := make([]domain.ChannelKey, 0, len(r.channels))
	for key := range r.channels {
		keys = append(keys, key)
	}
	return keys
}

func success(key domain.ChannelKey, messageID string) Result {
	res := Result{Success: true, Channel: key, Timestamp: time.Now()}
	if messageID != "" {
		res.MessageID = &messageID
	}
	return res
}

func failure(key domain.ChannelKey, err error) Result {
	return Result{Success: false, Channel: key, Err: err, Timestamp: time.Now()}
}
