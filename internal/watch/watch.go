// Package watch reports debounced changes under a directory.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"podcast-home/internal/logging"
)

const changeOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Options configures a Dir.
type Options struct {
	// Recursive also watches subdirectories, including ones created later.
	Recursive bool
	// Delay is how long the directory must stay quiet before OnChange runs.
	Delay time.Duration
	// Match filters events. Nil accepts every change.
	Match func(fsnotify.Event) bool
	// OnChange runs on its own goroutine once per burst of matching events.
	OnChange func()
}

// Dir watches one directory tree.
type Dir struct {
	watcher  *fsnotify.Watcher
	opts     Options
	logger   *logrus.Logger
	debounce *Debouncer

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New starts watching root. A non-recursive watch fails when root cannot be
// watched; a recursive one logs and skips unreadable subdirectories.
func New(root string, opts Options, logger *logrus.Logger) (*Dir, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	d := &Dir{
		watcher:  watcher,
		opts:     opts,
		logger:   logging.OrDefault(logger),
		debounce: NewDebouncer(opts.Delay, opts.OnChange),
		done:     make(chan struct{}),
	}

	if opts.Recursive {
		d.addRecursive(root)
	} else if err := watcher.Add(root); err != nil {
		watcher.Close()
		return nil, err
	}

	d.wg.Add(1)
	go d.run()

	return d, nil
}

// Close stops the watcher and any pending callback.
func (d *Dir) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		d.debounce.Stop()
		d.closeErr = d.watcher.Close()
		d.wg.Wait()
	})
	return d.closeErr
}

func (d *Dir) run() {
	defer d.wg.Done()

	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handle(event)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.WithError(err).Warn("watcher error")
		case <-d.done:
			return
		}
	}
}

func (d *Dir) handle(event fsnotify.Event) {
	if d.opts.Recursive && event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			d.addRecursive(event.Name)
		}
	}

	if event.Op&changeOps == 0 {
		return
	}
	if d.opts.Match != nil && !d.opts.Match(event) {
		return
	}
	d.debounce.Trigger()
}

func (d *Dir) addRecursive(path string) {
	filepath.WalkDir(path, func(p string, entry os.DirEntry, err error) error {
		if err != nil {
			d.logger.WithError(err).WithField("path", p).Warn("walk error")
			return nil
		}
		if entry.IsDir() {
			if err := d.watcher.Add(p); err != nil {
				d.logger.WithError(err).WithField("path", p).Warn("watcher add failure")
			}
		}
		return nil
	})
}

// Debouncer runs fn once after calls to Trigger stop for delay.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer returns a Debouncer for fn. A nil fn makes Trigger a no-op.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.fn == nil {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.fn()

		d.mu.Lock()
		if d.timer == timer {
			d.timer = nil
		}
		d.mu.Unlock()
	})
	d.timer = timer
}

// Stop cancels a pending run. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
