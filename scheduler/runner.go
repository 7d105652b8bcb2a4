package scheduler

import (
	"context"
	"time"

	"gestion-proyectos/backend/logging"
	"gestion-proyectos/backend/models"
)

const scanLockKey = "locks:notification-scan"

// NotificationScanner is the scan the runner guards.
type NotificationScanner interface {
	Scan(ctx context.Context, now time.Time) ([]models.Notification, error)
}

// ScanRunner serializes notification scans across triggers and instances.
// Without a locker every call scans.
type ScanRunner struct {
	scanner NotificationScanner
	locker  Locker
	ttl     time.Duration
}

func NewScanRunner(scanner NotificationScanner, locker Locker, ttl time.Duration) *ScanRunner {
	return &ScanRunner{scanner: scanner, locker: locker, ttl: ttl}
}

// Run scans as of now. When another scan holds the lock it returns an empty
// result without scanning.
func (r *ScanRunner) Run(ctx context.Context, now time.Time) ([]models.Notification, error) {
	if r.locker == nil {
		return r.scanner.Scan(ctx, now)
	}

	token, ok, err := r.locker.Acquire(ctx, scanLockKey, r.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		logging.Logger.Infof("Event ID: NOTIFICATION_SCAN_SKIPPED, Description: another scan holds %s", scanLockKey)
		return []models.Notification{}, nil
	}
	defer func() {
		// the request context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.locker.Release(releaseCtx, scanLockKey, token); err != nil {
			logging.Logger.Warnf("Event ID: SCAN_LOCK_RELEASE_FAILED, Description: %v", err)
		}
	}()

	return r.scanner.Scan(ctx, now)
}
