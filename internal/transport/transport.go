// Package transport defines the delivery path shared by the native bridge
// and the HTTP fallback. An implementation is chosen once at initialization
// and the client never branches on the delivery mode afterwards.
package transport

import (
	"context"

	"github.com/leshachaplin/tracklog/internal/domain"
)

// Transport delivers events and profile updates. Implementations never
// return delivery errors to the caller; failures are logged and dropped.
type Transport interface {
	SendEvent(ev domain.Event)
	SendProfileUpdate(update domain.ProfileUpdate)
	// Identify attributes everything after it to userID, linking the
	// previous anonymous identity where the backend supports it.
	Identify(userID string)
	Reset()
	Close(ctx context.Context) error
}
