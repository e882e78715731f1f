package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"shelfmate/internal/adapters/persistence/models"
	"shelfmate/internal/adapters/persistence/repositories"
	"shelfmate/internal/core/domain"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronService sends the daily due-date reminders (08:30). Fines themselves
// are computed on demand when a loan is read, never by a timer; this job
// only nudges borrowers.
type CronService struct {
	db        *gorm.DB
	notifRepo *repositories.NotificationRepository
	tokenRepo repositories.RefreshTokenRepository
	cron      *cron.Cron
}

// NewCronService creates a new cron service
func NewCronService(db *gorm.DB) *CronService {
	return &CronService{
		db:        db,
		notifRepo: repositories.NewNotificationRepository(db),
		tokenRepo: repositories.NewRefreshTokenRepository(db),
		cron:      cron.New(),
	}
}

// Start schedules the daily jobs
func (s *CronService) Start() {
	if _, err := s.cron.AddFunc("30 8 * * *", s.sendDueReminders); err != nil {
		log.Printf("❌ Failed to schedule due reminders: %v", err)
		return
	}
	if _, err := s.cron.AddFunc("0 3 * * *", s.cleanupExpiredTokens); err != nil {
		log.Printf("❌ Failed to schedule token cleanup: %v", err)
		return
	}
	s.cron.Start()
	log.Println("🚀 CronService started (due reminders 08:30, token cleanup 03:00)")
}

// Stop stops the scheduler
func (s *CronService) Stop() {
	s.cron.Stop()
	log.Println("🛑 CronService stopped")
}

// sendDueReminders notifies borrowers whose loans are due tomorrow or
// already overdue.
func (s *CronService) sendDueReminders() {
	ctx := context.Background()
	now := time.Now()
	tomorrow := now.Add(24 * time.Hour)

	borrowedStates := []string{
		string(domain.LoanActive),
		string(domain.LoanExtensionGranted),
	}

	var records []*models.LoanRecord
	err := s.db.WithContext(ctx).
		Where("state IN ? AND due_at < ?", borrowedStates, tomorrow).
		Find(&records).Error
	if err != nil {
		log.Printf("❌ Due reminder query error: %v", err)
		return
	}

	sent := 0
	for _, record := range records {
		if record.DueAt == nil {
			continue
		}
		var message string
		if record.DueAt.Before(now) {
			message = fmt.Sprintf("⏰ Your loan is overdue since %s. Please return the book.", record.DueAt.Format("02 Jan 2006"))
		} else {
			message = fmt.Sprintf("⏰ Your loan is due tomorrow (%s).", record.DueAt.Format("02 Jan 2006"))
		}

		n := &models.Notification{
			UserID:  record.UserID,
			Kind:    "due_reminder",
			LoanID:  record.ID,
			BookID:  record.BookID,
			Message: message,
		}
		if err := s.notifRepo.Create(ctx, n); err != nil {
			log.Printf("❌ Due reminder for loan %s error: %v", record.ID, err)
			continue
		}
		sent++
	}

	if sent > 0 {
		log.Printf("📨 Sent %d due reminders", sent)
	}
}

// cleanupExpiredTokens purges refresh tokens past their expiry.
func (s *CronService) cleanupExpiredTokens() {
	if err := s.tokenRepo.DeleteExpired(context.Background()); err != nil {
		log.Printf("❌ Token cleanup error: %v", err)
	}
}
