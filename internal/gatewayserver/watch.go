package gatewayserver

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// watchFiles reloads the engine when one of files changes. Parent
// directories are watched so editors that replace files by rename are
// seen too. Bursts of events collapse into one reload.
func watchFiles(ctx context.Context, files []string, reload func(context.Context) error) error {
	if len(files) == 0 {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	targets := map[string]struct{}{}
	dirs := map[string]struct{}{}
	for _, f := range files {
		abs, err := filepath.Abs(strings.TrimSpace(f))
		if err != nil {
			return err
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, hit := targets[abs]; !hit {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				log.Printf("watch: %v, reloading", err)
				_ = reload(ctx)
				continue
			}
			log.Printf("watch error: %v", err)
		case <-fire:
			fire = nil
			_ = reload(ctx)
		}
	}
}

// watchedFiles lists the local files whose changes trigger a reload.
func watchedFiles(openapiFile string, openapiWatch bool, linksFile string, linksWatch bool) []string {
	var out []string
	if openapiWatch && strings.TrimSpace(openapiFile) != "" {
		out = append(out, openapiFile)
	}
	if linksWatch && strings.TrimSpace(linksFile) != "" {
		out = append(out, linksFile)
	}
	return out
}
