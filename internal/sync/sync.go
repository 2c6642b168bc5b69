// Package sync holds the consumers that reconcile realtime events into
// local list state: the conversation list, open chat windows, the
// notification list and the post feed.
package sync

import (
	"breadshare-client/internal/realtime"
)

// Realtime is the slice of the connection manager the consumers use.
type Realtime interface {
	On(event string, fn realtime.Handler) realtime.Subscription
	Off(event string, sub realtime.Subscription)
	Emit(event string, payload any)
}
