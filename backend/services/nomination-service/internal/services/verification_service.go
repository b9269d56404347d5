package services

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/config"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/metrics"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
)

// VerificationService issues and consumes one-time email ownership codes.
type VerificationService interface {
	SendCode(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
}

type verificationService struct {
	cfg      *config.Config
	repo     repositories.EmailVerificationRepository
	notifier Notifier
	metrics  *metrics.Metrics
	now      Clock

	// emailValidator checks deliverability beyond syntax.
	emailValidator func(ctx context.Context, email string) (bool, error)
	codeFormat     *regexp.Regexp
}

// VerificationOption customises a VerificationService.
type VerificationOption func(*verificationService)

// WithEmailValidator replaces the MX/SendGrid deliverability check.
func WithEmailValidator(fn func(ctx context.Context, email string) (bool, error)) VerificationOption {
	return func(s *verificationService) { s.emailValidator = fn }
}

func NewVerificationService(
	cfg *config.Config,
	repo repositories.EmailVerificationRepository,
	notifier Notifier,
	m *metrics.Metrics,
	now Clock,
	opts ...VerificationOption,
) VerificationService {
	length := cfg.VerificationCodeLength
	if length <= 0 {
		length = config.VerificationCodeLength
	}
	s := &verificationService{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		now:      orNow(now),
		emailValidator: func(ctx context.Context, email string) (bool, error) {
			return utils.ValidateEmail(ctx, cfg.SendGridAPIKey, email, cfg.LDFlag_ValidateEmailWithSendGrid)
		},
		codeFormat: regexp.MustCompile(`^[0-9]{` + strconv.Itoa(length) + `}$`),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------------------------------------------------------------
// Send
// ---------------------------------------------------------------------

// SendCode stores a fresh code and emails it. Earlier unused codes for the
// same address stay valid until they expire. A delivery failure is reported
// even though the code row is already stored.
func (s *verificationService) SendCode(ctx context.Context, rawEmail string) error {
	email := utils.NormalizeEmail(rawEmail)
	if !utils.IsValidEmailSyntax(email) {
		return utils.NewValidationError("A valid email address is required", utils.ErrInvalidEmail)
	}

	ok, err := s.emailValidator(ctx, email)
	if err != nil {
		utils.Logger.WithError(err).Warn("Email deliverability check failed")
		return utils.NewNotificationDeliveryError(err)
	}
	if !ok {
		return utils.NewValidationError("Email address failed deliverability check", utils.ErrInvalidEmail)
	}

	length := s.cfg.VerificationCodeLength
	if length <= 0 {
		length = config.VerificationCodeLength
	}
	code, err := utils.RandomNumericCode(length)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to generate verification code")
		return &utils.AppError{StatusCode: http.StatusInternalServerError, Code: utils.ErrCodeInternal, Message: "An unexpected error occurred", Err: err}
	}

	now := s.now()
	expiry := s.cfg.VerificationCodeExpiry
	if expiry <= 0 {
		expiry = config.DefaultVerificationCodeExpiry
	}
	if err := s.repo.CreateCode(ctx, email, code, now.Add(expiry), now); err != nil {
		return persistenceFailure("verification.create_code", err)
	}

	if err := s.notifier.SendVerificationCode(ctx, email, code); err != nil {
		utils.Logger.WithError(err).WithField("email", email).Error("Failed to deliver verification code")
		return utils.NewNotificationDeliveryError(err)
	}

	s.metrics.IncCodeSent()
	return nil
}

// ---------------------------------------------------------------------
// Verify
// ---------------------------------------------------------------------

// Verify consumes the newest matching unused, unexpired code. Wrong,
// expired, reused and malformed codes all fail the same way.
func (s *verificationService) Verify(ctx context.Context, rawEmail, code string) error {
	email := utils.NormalizeEmail(rawEmail)
	if !utils.IsValidEmailSyntax(email) {
		return utils.NewValidationError("A valid email address is required", utils.ErrInvalidEmail)
	}

	code = strings.TrimSpace(code)
	if !s.codeFormat.MatchString(code) {
		s.metrics.IncVerificationAttempt("invalid")
		return utils.NewInvalidOrExpiredCodeError()
	}

	consumed, err := s.repo.ConsumeCode(ctx, email, code, s.now())
	if err != nil {
		s.metrics.IncVerificationAttempt("error")
		return persistenceFailure("verification.consume_code", err)
	}
	if !consumed {
		s.metrics.IncVerificationAttempt("invalid")
		return utils.NewInvalidOrExpiredCodeError()
	}

	s.metrics.IncVerificationAttempt("verified")
	utils.Logger.WithField("email", email).Info("Email ownership verified")
	return nil
}
