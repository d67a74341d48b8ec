package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/wovenlabs/loom/pkg/observability"
	"github.com/wovenlabs/loom/pkg/registry"
)

const tracerName = "github.com/wovenlabs/loom/pkg/loader"

// Loader sequences the extension lifecycle against the registry. It
// owns the module cache, load order, activation contexts, and the
// lifecycle event bus.
type Loader struct {
	registry *registry.Registry
	resolver Resolver
	events   *EventBus
	log      *logrus.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
	sf       singleflight.Group

	mu              sync.RWMutex
	modules         map[string]Module
	contexts        map[string]*ActivationContext
	loadOrder       []string
	activating      map[string]bool
	activationStack []string
}

// NewLoader creates a loader over the registry with the injected
// code-loading capability.
func NewLoader(reg *registry.Registry, resolver Resolver, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}

	return &Loader{
		registry:   reg,
		resolver:   resolver,
		events:     NewEventBus(),
		log:        log,
		tracer:     otel.Tracer(tracerName),
		modules:    make(map[string]Module),
		contexts:   make(map[string]*ActivationContext),
		activating: make(map[string]bool),
	}
}

// SetMetrics attaches lifecycle metrics. Optional; all recording is
// nil-safe.
func (l *Loader) SetMetrics(m *observability.Metrics) {
	l.metrics = m
}

// On subscribes a handler to a lifecycle event kind.
func (l *Loader) On(t EventType, handler EventHandler) {
	l.events.On(t, handler)
}

// Events returns the loader's event bus.
func (l *Loader) Events() *EventBus {
	return l.events
}

// Load obtains the extension's module via the injected resolver and
// caches it. Load is idempotent: a second call returns the identical
// module reference without re-invoking the resolver, and concurrent
// calls for the same id are deduplicated. Loading does not change the
// extension's state; a failure transitions it to the error state.
func (l *Loader) Load(ctx context.Context, id string) (Module, error) {
	if module, ok := l.Module(id); ok {
		return module, nil
	}

	v, err, _ := l.sf.Do(id, func() (interface{}, error) {
		if module, ok := l.Module(id); ok {
			return module, nil
		}
		return l.loadModule(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	return v, nil
}

// loadModule resolves and caches the module for id.
func (l *Loader) loadModule(ctx context.Context, id string) (Module, error) {
	meta, err := l.registry.Get(id)
	if err != nil {
		return nil, err
	}

	ctx, span := l.tracer.Start(ctx, "loader.Load",
		trace.WithAttributes(attribute.String("extension.id", id)))
	defer span.End()

	start := time.Now()
	module, err := l.resolver.Resolve(ctx, meta.InstallPath)
	if err != nil {
		span.RecordError(err)
		l.registry.SetError(id, err.Error())
		l.events.Emit(EventLoadError, id, err)
		l.recordLifecycle("load", false, 0)
		return nil, &LoaderError{Op: "load", ExtensionID: id, Err: err}
	}

	l.mu.Lock()
	l.modules[id] = module
	l.loadOrder = append(l.loadOrder, id)
	l.mu.Unlock()

	l.registry.SetModule(id, module)
	l.events.Emit(EventLoaded, id, nil)
	l.recordLifecycle("load", true, time.Since(start))
	l.updateGauges()

	l.log.WithFields(logrus.Fields{
		"extension": id,
		"path":      meta.InstallPath,
	}).Info("Loaded extension module")

	return module, nil
}

// Activate transitions the extension to ENABLED, activating every
// required dependency first. A call on an already-enabled extension
// is a no-op and does not re-invoke the module's activation hook.
func (l *Loader) Activate(ctx context.Context, id string) error {
	meta, err := l.registry.Get(id)
	if err != nil {
		return err
	}
	if meta.State == registry.StateEnabled {
		return nil
	}

	if err := l.pushActivation(id); err != nil {
		return err
	}
	defer l.popActivation(id)

	ctx, span := l.tracer.Start(ctx, "loader.Activate",
		trace.WithAttributes(attribute.String("extension.id", id)))
	defer span.End()

	start := time.Now()

	if err := l.activateDependencies(ctx, id); err != nil {
		span.RecordError(err)
		l.recordLifecycle("activate", false, 0)
		return err
	}

	module, err := l.Load(ctx, id)
	if err != nil {
		// Load already recorded the error state and emitted a load
		// error event.
		span.RecordError(err)
		l.events.Emit(EventActivationError, id, err)
		l.recordLifecycle("activate", false, 0)
		return &LoaderError{Op: "activate", ExtensionID: id, Err: err}
	}

	actx := &ActivationContext{
		ExtensionID:   id,
		ExtensionPath: meta.InstallPath,
		Manifest:      meta.Manifest,
		Registry:      l.registry,
	}
	l.mu.Lock()
	l.contexts[id] = actx
	l.mu.Unlock()

	// The activation hook is optional; a module without one is still
	// marked enabled.
	if activator, ok := module.(Activator); ok {
		if err := activator.Activate(ctx, actx); err != nil {
			l.mu.Lock()
			delete(l.contexts, id)
			l.mu.Unlock()
			if derr := actx.disposeAll(); derr != nil {
				l.log.WithError(derr).WithField("extension", id).
					Warn("Failed to dispose subscriptions of failed activation")
			}

			span.RecordError(err)
			l.registry.SetError(id, err.Error())
			l.events.Emit(EventActivationError, id, err)
			l.recordLifecycle("activate", false, 0)
			return &LoaderError{Op: "activate", ExtensionID: id, Err: err}
		}
	}

	l.registry.SetState(id, registry.StateEnabled)
	l.events.Emit(EventActivated, id, nil)
	l.recordLifecycle("activate", true, time.Since(start))
	l.updateGauges()

	l.log.WithField("extension", id).Info("Activated extension")
	return nil
}

// activateDependencies brings every required dependency of id to
// ENABLED, depth-first.
func (l *Loader) activateDependencies(ctx context.Context, id string) error {
	deps, err := l.registry.DependencyIDs(id)
	if err != nil {
		return err
	}

	for _, dep := range deps {
		depMeta, err := l.registry.Get(dep)
		if err != nil {
			depErr := &DependencyError{ExtensionID: id, DependencyID: dep}
			l.registry.SetError(id, depErr.Error())
			l.events.Emit(EventActivationError, id, depErr)
			return depErr
		}

		if depMeta.State == registry.StateEnabled {
			continue
		}

		// An errored dependency is left untouched; the dependent fails
		// instead of silently re-activating it.
		if depMeta.State == registry.StateError {
			cause := fmt.Errorf("dependency %s is in the error state", dep)
			l.registry.SetError(id, cause.Error())
			l.events.Emit(EventActivationError, id, cause)
			return &LoaderError{Op: "activate", ExtensionID: id, Err: cause}
		}

		if err := l.Activate(ctx, dep); err != nil {
			cause := fmt.Errorf("dependency %s failed to activate: %w", dep, err)
			l.registry.SetError(id, cause.Error())
			l.events.Emit(EventActivationError, id, cause)
			return &LoaderError{Op: "activate", ExtensionID: id, Err: cause}
		}
	}

	return nil
}

// pushActivation guards recursive activation against dependency
// cycles that bulk-operation screening did not cover.
func (l *Loader) pushActivation(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.activating[id] {
		path := append([]string{}, l.activationStack...)
		start := 0
		for i, p := range path {
			if p == id {
				start = i
				break
			}
		}
		return &registry.CircularDependencyError{Path: append(path[start:], id)}
	}

	l.activating[id] = true
	l.activationStack = append(l.activationStack, id)
	return nil
}

func (l *Loader) popActivation(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.activating, id)
	if n := len(l.activationStack); n > 0 && l.activationStack[n-1] == id {
		l.activationStack = l.activationStack[:n-1]
	}
}

// Deactivate transitions an enabled extension to DISABLED, invoking
// its optional deactivation hook and disposing every subscription in
// its activation context in LIFO order. A call on an already-disabled
// or never-activated extension is a no-op.
func (l *Loader) Deactivate(ctx context.Context, id string) error {
	meta, err := l.registry.Get(id)
	if err != nil {
		return err
	}

	l.mu.RLock()
	actx := l.contexts[id]
	module := l.modules[id]
	l.mu.RUnlock()

	// A retained context means a prior deactivation failed mid-flight;
	// allow the retry through even though the state is no longer
	// enabled.
	if meta.State != registry.StateEnabled && actx == nil {
		return nil
	}

	ctx, span := l.tracer.Start(ctx, "loader.Deactivate",
		trace.WithAttributes(attribute.String("extension.id", id)))
	defer span.End()

	if deactivator, ok := module.(Deactivator); ok {
		if err := deactivator.Deactivate(ctx); err != nil {
			span.RecordError(err)
			l.registry.SetError(id, err.Error())
			l.events.Emit(EventDeactivationError, id, err)
			l.recordLifecycle("deactivate", false, 0)
			return &LoaderError{Op: "deactivate", ExtensionID: id, Err: err}
		}
	}

	if actx != nil {
		if derr := actx.disposeAll(); derr != nil {
			l.log.WithError(derr).WithField("extension", id).
				Warn("Subscription disposal failed during deactivation")
		}
		l.mu.Lock()
		delete(l.contexts, id)
		l.mu.Unlock()
	}

	l.registry.SetState(id, registry.StateDisabled)
	l.events.Emit(EventDeactivated, id, nil)
	l.recordLifecycle("deactivate", true, 0)
	l.updateGauges()

	l.log.WithField("extension", id).Info("Deactivated extension")
	return nil
}

// Unload drops the cached module reference, deactivating the
// extension first if it is enabled. Idempotent.
func (l *Loader) Unload(ctx context.Context, id string) error {
	meta, err := l.registry.Get(id)
	if err != nil {
		return err
	}

	if meta.State == registry.StateEnabled {
		if err := l.Deactivate(ctx, id); err != nil {
			return err
		}
	}

	l.mu.Lock()
	if _, loaded := l.modules[id]; loaded {
		delete(l.modules, id)
		for i, loadedID := range l.loadOrder {
			if loadedID == id {
				l.loadOrder = append(l.loadOrder[:i], l.loadOrder[i+1:]...)
				break
			}
		}
	}
	l.mu.Unlock()

	l.registry.SetModule(id, nil)
	l.updateGauges()
	return nil
}

// LoadAll loads every registered extension in dependency order. It
// rejects with a *registry.CircularDependencyError, before loading
// anything, if the graph contains a cycle. Individual load failures
// are recorded on the extension and do not stop the batch.
func (l *Loader) LoadAll(ctx context.Context) error {
	order, err := l.registry.TopologicalOrder(l.registry.IDs())
	if err != nil {
		return err
	}

	for _, id := range order {
		if _, err := l.Load(ctx, id); err != nil {
			l.log.WithError(err).WithField("extension", id).
				Warn("Failed to load extension, continuing batch")
		}
	}

	return nil
}

// ActivateAll activates every registered extension in dependency
// order, skipping extensions already in the error state and
// continuing past individual activation failures.
func (l *Loader) ActivateAll(ctx context.Context) error {
	order, err := l.registry.TopologicalOrder(l.registry.IDs())
	if err != nil {
		return err
	}

	for _, id := range order {
		meta, err := l.registry.Get(id)
		if err != nil {
			continue
		}
		if meta.State == registry.StateError {
			l.log.WithField("extension", id).Debug("Skipping errored extension")
			continue
		}

		if err := l.Activate(ctx, id); err != nil {
			l.log.WithError(err).WithField("extension", id).
				Warn("Failed to activate extension, continuing batch")
		}
	}

	return nil
}

// DeactivateAll deactivates every enabled extension in reverse
// dependency order, so dependents release their resources before the
// extensions they depend on.
func (l *Loader) DeactivateAll(ctx context.Context) error {
	order, err := l.registry.TopologicalOrder(l.registry.IDs())
	if err != nil {
		return err
	}

	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		meta, err := l.registry.Get(id)
		if err != nil || meta.State != registry.StateEnabled {
			continue
		}

		if err := l.Deactivate(ctx, id); err != nil {
			l.log.WithError(err).WithField("extension", id).
				Warn("Failed to deactivate extension, continuing batch")
		}
	}

	return nil
}

// Module returns the cached module for id.
func (l *Loader) Module(id string) (Module, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	module, ok := l.modules[id]
	return module, ok
}

// Context returns the activation context for id. Defined only while
// the extension is enabled.
func (l *Loader) Context(id string) (*ActivationContext, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	actx, ok := l.contexts[id]
	return actx, ok
}

// IsLoaded reports whether the extension's module is cached.
func (l *Loader) IsLoaded(id string) bool {
	_, ok := l.Module(id)
	return ok
}

// LoadOrder returns the currently-loaded ids in the order they were
// first loaded.
func (l *Loader) LoadOrder() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	order := make([]string, len(l.loadOrder))
	copy(order, l.loadOrder)
	return order
}

// Clear drops every cached module, activation context, and the load
// order. Used for full resets.
func (l *Loader) Clear() {
	l.mu.Lock()
	ids := make([]string, 0, len(l.modules))
	for id := range l.modules {
		ids = append(ids, id)
	}
	l.modules = make(map[string]Module)
	l.contexts = make(map[string]*ActivationContext)
	l.loadOrder = nil
	l.mu.Unlock()

	for _, id := range ids {
		l.registry.SetModule(id, nil)
	}
	l.updateGauges()
}

// recordLifecycle updates lifecycle counters. Nil-safe.
func (l *Loader) recordLifecycle(op string, success bool, duration time.Duration) {
	if l.metrics == nil {
		return
	}

	status := "success"
	if !success {
		status = "error"
		l.metrics.LifecycleErrorsTotal.WithLabelValues(op).Inc()
	}

	switch op {
	case "load":
		l.metrics.LoadsTotal.WithLabelValues(status).Inc()
		if success {
			l.metrics.LoadDuration.Observe(duration.Seconds())
		}
	case "activate":
		l.metrics.ActivationsTotal.WithLabelValues(status).Inc()
		if success {
			l.metrics.ActivationDuration.Observe(duration.Seconds())
		}
	case "deactivate":
		l.metrics.DeactivationsTotal.WithLabelValues(status).Inc()
	}
}

// updateGauges recomputes the extension population gauges. Nil-safe.
func (l *Loader) updateGauges() {
	if l.metrics == nil {
		return
	}

	var enabled, errored float64
	for _, meta := range l.registry.List() {
		switch meta.State {
		case registry.StateEnabled:
			enabled++
		case registry.StateError:
			errored++
		}
	}

	l.mu.RLock()
	loaded := float64(len(l.modules))
	l.mu.RUnlock()

	l.metrics.ExtensionsRegistered.Set(float64(l.registry.Count()))
	l.metrics.ExtensionsLoaded.Set(loaded)
	l.metrics.ExtensionsEnabled.Set(enabled)
	l.metrics.ExtensionsErrored.Set(errored)
}
