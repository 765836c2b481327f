package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gethiox/refrouter/internal/pkg/logger"
)

// DetectDeviceConfigChanges notifies about every write to the file under path.
// Parent directory is watched, so the file may be replaced by editors.
func DetectDeviceConfigChanges(ctx context.Context, path string) <-chan bool {
	var change = make(chan bool)

	go func() {
		defer close(change)
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Info(fmt.Sprintf("config watcher failed: %v", err), logger.Warning)
			return
		}

		go func() {
			<-ctx.Done()
			err := watcher.Close()
			if err != nil {
				log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
			}
		}()

		err = watcher.Add(filepath.Dir(path))
		if err != nil {
			log.Info(fmt.Sprintf("watching \"%s\" failed: %v", path, err), logger.Warning)
			return
		}

		target := filepath.Clean(path)
		for event := range watcher.Events {
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			log.Info(fmt.Sprintf("config change detected: %s", event.Name), logger.Info)
			select {
			case change <- true:
			case <-ctx.Done():
				return
			}
		}
	}()

	return change
}
