package library

import (
	"context"
	"sync"

	log "github.com/cantara/bragi/sbragi"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads lib each time a definition file in its directory is written, created,
// removed or renamed, until ctx is done. Only the top level of the directory is watched.
// lock is held while reloading so readers holding it never see a half swapped index.
// onReload, if set, receives the result of every reload.
func Watch(ctx context.Context, lib *Library, lock sync.Locker, onReload func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = w.Add(lib.Dir())
	if err != nil {
		w.Close()
		return err
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isDefinitionFile(ev.Name) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				lock.Lock()
				err := lib.Reload()
				lock.Unlock()
				if err != nil {
					log.WithError(err).Error("while reloading module library, keeping previous modules", "event", ev.String())
				} else {
					log.Info("reloaded module library", "event", ev.String())
				}
				if onReload != nil {
					onReload(err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Error("while watching module library")
			}
		}
	}()
	return nil
}
