package web

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// reloadDebounce groups the several writes editors make for one save.
const reloadDebounce = 100 * time.Millisecond

// journalWatcher watches the journal files and calls onChange once writes
// settle. The watched set follows the include list of the last load.
type journalWatcher struct {
	fs       *fsnotify.Watcher
	watched  map[string]struct{}
	onChange func(ctx context.Context)
}

func newJournalWatcher(onChange func(ctx context.Context)) (*journalWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &journalWatcher{
		fs:       fs,
		watched:  make(map[string]struct{}),
		onChange: onChange,
	}, nil
}

// sync makes files the watched set. Files still in the set are added
// again, since an atomic save replaces the inode fsnotify was following.
func (jw *journalWatcher) sync(files []string) {
	want := make(map[string]struct{}, len(files))
	for _, file := range files {
		want[file] = struct{}{}
	}

	for file := range jw.watched {
		if _, ok := want[file]; !ok {
			_ = jw.fs.Remove(file)
			delete(jw.watched, file)
		}
	}

	for file := range want {
		if err := jw.fs.Add(file); err != nil {
			log.WithError(err).WithField("file", file).Warn("failed to watch file")
			continue
		}
		jw.watched[file] = struct{}{}
	}
}

// run handles file events until ctx is done and then closes the watcher.
func (jw *journalWatcher) run(ctx context.Context) {
	defer func() { _ = jw.fs.Close() }()

	debounce := time.NewTimer(reloadDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-jw.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			debounce.Reset(reloadDebounce)

		case <-debounce.C:
			jw.onChange(ctx)

		case err, ok := <-jw.fs.Errors:
			if !ok {
				return
			}
			log.WithError(err).Error("file watcher error")
		}
	}
}

// startWatcher watches the loaded journal and its includes and reloads the
// ledger when any of them changes.
func (s *Server) startWatcher(ctx context.Context) error {
	jw, err := newJournalWatcher(s.reloadOnChange)
	if err != nil {
		return err
	}

	s.mu.RLock()
	files := append([]string{s.rootFile}, s.includeFiles...)
	s.mu.RUnlock()

	jw.sync(files)
	s.watcher = jw

	go jw.run(ctx)
	return nil
}

// reloadOnChange runs on the watcher goroutine after a debounced change.
func (s *Server) reloadOnChange(ctx context.Context) {
	if err := s.reloadLedger(ctx); err != nil {
		log.WithError(err).Error("failed to reload journal")
		return
	}

	s.mu.RLock()
	files := append([]string{s.rootFile}, s.includeFiles...)
	rejected := len(s.loadErrors)
	s.mu.RUnlock()

	s.watcher.sync(files)
	s.events.publish(eventReload, ReloadEvent{Rejected: rejected})
}
