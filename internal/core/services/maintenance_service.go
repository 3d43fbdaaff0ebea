package services

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"libralend/internal/adapters/persistence/repositories"
)

// MaintenanceService runs scheduled housekeeping jobs
type MaintenanceService struct {
	refreshTokenRepo repositories.RefreshTokenRepository
	cron             *cron.Cron
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(refreshTokenRepo repositories.RefreshTokenRepository) *MaintenanceService {
	return &MaintenanceService{
		refreshTokenRepo: refreshTokenRepo,
		cron:             cron.New(),
	}
}

// Start schedules the nightly token purge (03:00 daily)
func (s *MaintenanceService) Start() {
	s.cron.AddFunc("0 3 * * *", s.purgeTokens)
	s.cron.Start()
	log.Println("🚀 MaintenanceService started")
}

// Stop stops the scheduler
func (s *MaintenanceService) Stop() {
	s.cron.Stop()
	log.Println("🛑 MaintenanceService stopped")
}

func (s *MaintenanceService) purgeTokens() {
	purged, err := s.refreshTokenRepo.DeleteExpired(context.Background())
	if err != nil {
		log.Printf("❌ Token purge error: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("🗑️ Purged %d expired refresh tokens", purged)
	}
}
