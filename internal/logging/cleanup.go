package logging

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/models"
)

// Retention is how long persisted error logs are kept.
const Retention = 30 * 24 * time.Hour

// StartCleanup deletes system_logs older than Retention once a day until done
// is closed.
func StartCleanup(db *gorm.DB, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := PurgeBefore(db, time.Now().Add(-Retention)); err != nil {
					slog.Error("log cleanup failed", "error", err)
				} else if n > 0 {
					slog.Info("log cleanup completed", "deleted", n)
				}
			case <-done:
				return
			}
		}
	}()
}

// PurgeBefore removes log rows stamped before cutoff.
func PurgeBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
