package scheduler

import (
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	authRepo "barangayku_backend/internals/features/users/auth/repository"
)

// StartBlacklistCleanupScheduler removes expired blacklist rows once a day.
func StartBlacklistCleanupScheduler(db *gorm.DB) {
	go func() {
		interval := 24 * time.Hour
		if v := os.Getenv("BLACKLIST_CLEANUP_INTERVAL_HOURS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				interval = time.Duration(n) * time.Hour
			}
		}

		for {
			log.Println("[CLEANUP] Running token_blacklist cleanup...")

			deleted, err := authRepo.CleanupExpiredBlacklist(db)
			if err != nil {
				log.Printf("[CLEANUP ERROR] Failed to delete expired tokens: %v", err)
			} else if deleted > 0 {
				log.Printf("[CLEANUP] %d expired tokens removed", deleted)
			} else {
				log.Println("[CLEANUP] Nothing eligible for removal")
			}

			time.Sleep(interval)
		}
	}()
}
