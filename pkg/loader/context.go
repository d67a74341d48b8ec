package loader

import (
	"sync"

	"github.com/wovenlabs/loom/pkg/manifest"
	"github.com/wovenlabs/loom/pkg/registry"
)

// Disposable is a handle for a resource that must be released when
// the owning extension is deactivated.
type Disposable interface {
	Dispose() error
}

// DisposeFunc adapts a function to the Disposable interface.
type DisposeFunc func() error

// Dispose implements Disposable.
func (f DisposeFunc) Dispose() error {
	return f()
}

// ActivationContext is the per-activation scope handed to an
// extension's activate hook. It lives from activation until
// deactivation, when every registered subscription is disposed in
// LIFO order and the context is discarded.
type ActivationContext struct {
	ExtensionID   string
	ExtensionPath string
	Manifest      *manifest.Manifest
	Registry      *registry.Registry

	mu            sync.Mutex
	subscriptions []Disposable
}

// AddSubscription registers a disposable handle with the context.
func (c *ActivationContext) AddSubscription(d Disposable) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subscriptions = append(c.subscriptions, d)
}

// OnDispose registers a cleanup function with the context.
func (c *ActivationContext) OnDispose(fn func() error) {
	c.AddSubscription(DisposeFunc(fn))
}

// SubscriptionCount returns the number of live subscriptions.
func (c *ActivationContext) SubscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.subscriptions)
}

// disposeAll releases every subscription in LIFO order and empties
// the arena, so each handle is disposed at most once. The first
// disposal error is returned after all handles have been attempted.
func (c *ActivationContext) disposeAll() error {
	c.mu.Lock()
	subs := c.subscriptions
	c.subscriptions = nil
	c.mu.Unlock()

	var firstErr error
	for i := len(subs) - 1; i >= 0; i-- {
		if err := subs[i].Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
