package core

// autosave.go periodically writes unsaved edits back to the open save file.
//
// A session only autosaves once it has a file name, i.e. after the first
// explicit Save or Open. Failures are logged and retried on the next tick;
// they never stop the loop.

import (
	"context"
	"time"
)

// RunAutosave saves the workbook every interval while any of its sheets
// has unsaved edits. It blocks until ctx is cancelled, then makes one final attempt so
// edits made just before shutdown are not lost.
func (e *Editor) RunAutosave(ctx context.Context, store SaveFileStore, interval time.Duration, timeout time.Duration) {
	e.logger.Info("autosave started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Parent is gone; give the last save its own deadline.
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
			e.autosave(final, store)
			cancel()
			e.logger.Info("autosave stopped")
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, timeout)
			e.autosave(tickCtx, store)
			cancel()
		}
	}
}

// autosave performs one save if needed and reports whether it wrote.
func (e *Editor) autosave(ctx context.Context, store SaveFileStore) bool {
	st := e.Status()
	if st.FileName == "" || !st.Pending {
		return false
	}

	start := time.Now()
	if err := e.Save(ctx, store, st.FileName); err != nil {
		e.logger.Error("autosave failed", "name", st.FileName, "error", err)
		return false
	}
	e.logger.Debug("autosave completed",
		"name", st.FileName,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return true
}
