package screens

import (
	"context"

	"community-service/internal/viewsync"
)

// Screen is a mountable, live view of the data store.
type Screen interface {
	Name() string
	Mount(ctx context.Context) error
	Unmount()
	Reload(ctx context.Context, loaders ...string) error
	OnUpdate(fn func())
	SetNotifier(n viewsync.Notifier)
	Snapshot() any
	Handle(ctx context.Context, a Action) error
}
