// Package watcher reports changes under a log directory so an index can be
// rebuilt.
//
// FSWatcher follows every directory under the root with fsnotify, adding
// directories as they appear. Raw events pass through a Debouncer, which
// coalesces bursts (a log rotation, an rsync of an archive) into one batch.
//
//	w, err := watcher.NewFSWatcher(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	go func() { _ = w.Start(ctx, logDir) }()
//	for batch := range w.Events() {
//	    rebuild()
//	}
package watcher
