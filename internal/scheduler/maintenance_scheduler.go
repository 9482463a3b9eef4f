package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/internal/app/service"
	"github.com/savoryhq/savory-backend/pkg/logger"
)

// MaintenanceScheduler runs the recurring housekeeping jobs: purging
// expired password reset tokens and rewarming the aggregate caches.
type MaintenanceScheduler struct {
	cron         *cron.Cron
	userRepo     repository.UserRepository
	storeService service.StoreService
}

func NewMaintenanceScheduler(userRepo repository.UserRepository, storeService service.StoreService) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron:         cron.New(),
		userRepo:     userRepo,
		storeService: storeService,
	}
}

// Start registers the jobs and kicks off the cron loop
func (s *MaintenanceScheduler) Start() error {
	// Purge expired reset tokens at the top of every hour
	if _, err := s.cron.AddFunc("0 * * * *", func() {
		cleared, err := s.userRepo.ClearExpiredResetTokens(time.Now())
		if err != nil {
			logger.Error("Failed to clear expired reset tokens", err)
			return
		}
		if cleared > 0 {
			logger.Info("Cleared expired reset tokens", map[string]interface{}{
				"count": cleared,
			})
		}
	}); err != nil {
		return err
	}

	// Rewarm the top stores and tag histogram caches every ten minutes
	if _, err := s.cron.AddFunc("*/10 * * * *", func() {
		if _, err := s.storeService.TopStores(); err != nil {
			logger.Error("Failed to warm top stores cache", err)
		}
		if _, err := s.storeService.TagHistogram(); err != nil {
			logger.Error("Failed to warm tag histogram cache", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Maintenance scheduler started", nil)
	return nil
}

// Stop halts the cron loop
func (s *MaintenanceScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Maintenance scheduler stopped", nil)
}
