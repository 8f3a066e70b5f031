package store

import (
	"context"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/post"
)

// ChannelRegistry maps owners to their destination chat. It is persisted in
// the same snapshot as the task queues.
type ChannelRegistry struct {
	store    *Store
	fallback string
}

// Get returns the owner's bound chat, or the configured default.
func (r *ChannelRegistry) Get(owner post.OwnerID) string {
	if chat, ok := r.Lookup(owner); ok {
		return chat
	}
	return r.fallback
}

// Lookup returns the explicitly bound chat, if any.
func (r *ChannelRegistry) Lookup(owner post.OwnerID) (string, bool) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	chat, ok := r.store.channels[owner]
	return chat, ok
}

// Default returns the chat used for owners without a binding.
func (r *ChannelRegistry) Default() string {
	return r.fallback
}

// Set binds the owner to chat, overwriting any previous binding.
func (r *ChannelRegistry) Set(ctx context.Context, owner post.OwnerID, chat string) {
	unlock := r.store.lockOwner(owner)
	defer unlock()

	r.store.mu.Lock()
	r.store.channels[owner] = chat
	r.store.mu.Unlock()

	r.store.persist(ctx, "set_channel", owner)

	r.store.logger.InfoCtx(ctx, "channel bound",
		logger.Field{Key: "owner", Value: int64(owner)},
		logger.Field{Key: "chat_id", Value: chat})
}
