package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"shelfmate/internal/adapters/persistence/models"
	"shelfmate/internal/adapters/persistence/repositories"
	"shelfmate/internal/core/domain"
)

// NotificationService is the notification sink of the loan lifecycle. It
// persists in-app notifications for borrowers and forwards staff-facing
// events to a webhook (the librarians' channel). Failures are logged and
// discarded; a lost notification never fails a transition.
type NotificationService struct {
	notifRepo  *repositories.NotificationRepository
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifRepo *repositories.NotificationRepository) *NotificationService {
	url := os.Getenv("NOTIFY_WEBHOOK_URL")
	return &NotificationService{
		notifRepo:  notifRepo,
		webhookURL: url,
		enabled:    url != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

var _ NotificationSink = (*NotificationService)(nil)

// IsEnabled checks if webhook forwarding is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// Notify handles a lifecycle event. Never returns an error.
func (s *NotificationService) Notify(ctx context.Context, event domain.LoanEvent) {
	message := messageFor(event)

	if borrowerFacing(event.Kind) && s.notifRepo != nil {
		n := &models.Notification{
			UserID:  event.UserID,
			Kind:    string(event.Kind),
			LoanID:  event.LoanID,
			BookID:  event.BookID,
			Message: message,
		}
		if err := s.notifRepo.Create(ctx, n); err != nil {
			log.Printf("⚠️ Failed to store notification [%s]: %v", event.Kind, err)
		}
	}

	if err := s.sendWebhook(event, message); err != nil {
		log.Printf("⚠️ Failed to forward notification [%s]: %v", event.Kind, err)
	}
}

// borrowerFacing reports whether the event lands in the borrower's in-app
// inbox. The rest only go to the staff channel.
func borrowerFacing(kind domain.EventKind) bool {
	switch kind {
	case domain.EventBorrowApproved,
		domain.EventBorrowRejected,
		domain.EventExtensionGranted,
		domain.EventReturnApproved,
		domain.EventFineAssessed,
		domain.EventFinePaid:
		return true
	}
	return false
}

func messageFor(event domain.LoanEvent) string {
	switch event.Kind {
	case domain.EventBorrowRequested:
		return fmt.Sprintf("📚 New borrow request for book %s", event.BookID)
	case domain.EventBorrowApproved:
		return "✅ Your borrow request was approved. Happy reading!"
	case domain.EventBorrowRejected:
		return "❌ Your borrow request was rejected."
	case domain.EventExtensionGranted:
		return "🗓️ Your loan was extended by one loan period."
	case domain.EventReturnRequested:
		return fmt.Sprintf("↩️ Return requested for book %s", event.BookID)
	case domain.EventReturnApproved:
		return "✅ Your return was confirmed. Thank you!"
	case domain.EventFineAssessed:
		return "💸 An overdue fine was assessed on your returned loan."
	case domain.EventFinePaid:
		return "✅ Your fine was marked as paid."
	case domain.EventBookLost:
		return fmt.Sprintf("🚨 Book %s was marked as lost", event.BookID)
	case domain.EventBookFound:
		return fmt.Sprintf("🎉 Book %s was found and is on loan again", event.BookID)
	default:
		return string(event.Kind)
	}
}

type webhookPayload struct {
	Kind    string `json:"kind"`
	LoanID  string `json:"loan_id"`
	BookID  string `json:"book_id"`
	UserID  uint   `json:"user_id"`
	Message string `json:"message"`
}

func (s *NotificationService) sendWebhook(event domain.LoanEvent, message string) error {
	if !s.enabled {
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Kind:    string(event.Kind),
		LoanID:  event.LoanID,
		BookID:  event.BookID,
		UserID:  event.UserID,
		Message: message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
