package app

import (
	"context"
	"errors"
)

// Shutdown stops the application in the following order:
//  1. Stops receiving updates and waits for handled ones to be answered
//  2. Stops the scheduler and waits for in-flight deliveries
//  3. Writes a final snapshot and closes the storage backend
//  4. Releases the PID file
//
// It is safe to call more than once.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	var errs []error

	if a.telegram != nil {
		a.telegram.Stop()
	}

	if a.scheduler != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.scheduler.Stop(stopCtx); err != nil {
			a.logger.Error("failed to stop scheduler", err)
			errs = append(errs, err)
		}
		cancel()
	}

	if a.cancel != nil {
		a.cancel()
	}

	if a.store != nil {
		if err := a.store.SaveAll(context.Background()); err != nil {
			a.logger.Error("failed to save queue", err)
			errs = append(errs, err)
		}
	}
	if a.persister != nil {
		if err := a.persister.Close(); err != nil {
			a.logger.Error("failed to close storage", err)
			errs = append(errs, err)
		}
	}

	if a.releasePID != nil {
		if err := a.releasePID(); err != nil {
			a.logger.Error("failed to remove PID file", err)
		}
		a.releasePID = nil
	}

	a.started = false
	a.logger.Info("application shutdown complete")

	return errors.Join(errs...)
}
