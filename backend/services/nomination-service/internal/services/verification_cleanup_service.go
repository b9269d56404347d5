// verification_cleanup_service.go
package services

import (
	"context"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
)

// VerificationCleanupService purges verification codes nobody can use anymore.
type VerificationCleanupService interface {
	// CleanupDaily deletes expired codes and used codes past the grace period.
	CleanupDaily(ctx context.Context) error
}

type verificationCleanupService struct {
	emailRepo repositories.EmailVerificationRepository
	usedGrace time.Duration
	now       Clock
}

func NewVerificationCleanupService(
	emailRepo repositories.EmailVerificationRepository,
	usedGrace time.Duration,
	now Clock,
) VerificationCleanupService {
	return &verificationCleanupService{
		emailRepo: emailRepo,
		usedGrace: usedGrace,
		now:       orNow(now),
	}
}

// CleanupDaily deletes stale verification codes and logs any errors encountered.
func (s *verificationCleanupService) CleanupDaily(ctx context.Context) error {
	logger := utils.Logger

	now := s.now()
	deleted, err := s.emailRepo.CleanupExpired(ctx, now, now.Add(-s.usedGrace))
	if err != nil {
		logger.WithError(err).Error("Failed to cleanup email_verification_codes")
		return err
	}

	logger.WithField("deleted", deleted).Info("Daily verification-codes cleanup completed successfully.")
	return nil
}
