package services

import (
	"context"
	"strings"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/google/uuid"
)

// PersonInput identifies a nominator or nominee as typed into the form.
type PersonInput struct {
	FullName string
	Email    string
	Phone    *string
}

// IdentityResolver maps an email to exactly one Member, creating it on
// first sight. Nominators and nominees share the same records.
type IdentityResolver interface {
	ResolveOrCreate(ctx context.Context, p PersonInput) (*models.Member, error)
}

type identityResolver struct {
	memberRepo repositories.MemberRepository
}

func NewIdentityResolver(memberRepo repositories.MemberRepository) IdentityResolver {
	return &identityResolver{memberRepo: memberRepo}
}

func (s *identityResolver) ResolveOrCreate(ctx context.Context, p PersonInput) (*models.Member, error) {
	email := utils.NormalizeEmail(p.Email)

	existing, err := s.memberRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, persistenceFailure("member.get_by_email", err)
	}
	if existing != nil {
		return existing, nil
	}

	m := &models.Member{
		ID:               uuid.New(),
		FullName:         strings.TrimSpace(p.FullName),
		Email:            email,
		MembershipStatus: models.MembershipStatusPending,
		PhoneNumber:      trimmedOrNil(p.Phone),
	}
	createErr := s.memberRepo.Create(ctx, m)
	if createErr == nil {
		return m, nil
	}
	if !repositories.IsUniqueViolation(createErr, repositories.ConstraintMemberEmail) {
		return nil, persistenceFailure("member.create", createErr)
	}

	// Lost a creation race for this email; the winner's row is the answer.
	winner, err := s.memberRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, persistenceFailure("member.refetch", err)
	}
	if winner == nil {
		return nil, persistenceFailure("member.refetch", createErr)
	}
	utils.Logger.WithField("member_id", winner.ID).Debug("Resolved member after concurrent create")
	return winner, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
