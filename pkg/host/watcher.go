package host

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/wovenlabs/loom/pkg/config"
)

// debounceDelay coalesces bursts of filesystem events into one rescan.
const debounceDelay = 2 * time.Second

// Watcher keeps the registry in sync with the extension directories,
// via filesystem events, a cron schedule, or both.
type Watcher struct {
	host *Host
	cfg  config.ExtensionsConfig
	log  *logrus.Logger

	fsWatcher *fsnotify.Watcher
	scheduler *cron.Cron
	done      chan struct{}
}

// NewWatcher creates a watcher for the host.
func NewWatcher(h *Host, cfg config.ExtensionsConfig, log *logrus.Logger) *Watcher {
	return &Watcher{
		host: h,
		cfg:  cfg,
		log:  log,
		done: make(chan struct{}),
	}
}

// Start begins watching. Filesystem events debounce into a rescan;
// the cron schedule, when set, triggers unconditional rescans.
func (w *Watcher) Start(ctx context.Context) error {
	if w.cfg.Watch {
		fsWatcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		w.fsWatcher = fsWatcher

		for _, dir := range w.cfg.Dirs {
			if err := fsWatcher.Add(dir); err != nil {
				w.log.WithError(err).WithField("dir", dir).
					Warn("Failed to watch extension directory")
			}
		}

		go w.watchLoop(ctx)
	}

	if w.cfg.RescanCron != "" {
		w.scheduler = cron.New()
		_, err := w.scheduler.AddFunc(w.cfg.RescanCron, func() {
			w.log.Debug("Scheduled extension rescan")
			if err := w.host.Scan(ctx); err != nil {
				w.log.WithError(err).Warn("Scheduled rescan failed")
			}
		})
		if err != nil {
			return err
		}
		w.scheduler.Start()
	}

	return nil
}

// watchLoop consumes filesystem events until Stop or context
// cancellation.
func (w *Watcher) watchLoop(ctx context.Context) {
	var debounce *time.Timer
	trigger := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			w.log.WithField("event", event.String()).Debug("Extension directory changed")
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			if err := w.host.Scan(ctx); err != nil {
				w.log.WithError(err).Warn("Rescan after filesystem change failed")
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("Filesystem watcher error")

		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

// Stop halts filesystem watching and the rescan schedule.
func (w *Watcher) Stop() {
	close(w.done)

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
	if w.scheduler != nil {
		<-w.scheduler.Stop().Done()
	}
}
