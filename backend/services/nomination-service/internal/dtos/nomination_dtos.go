package dtos

import "github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"

// ----------------------
// Public submission
// ----------------------

type PersonRequest struct {
	FullName    string  `json:"full_name" validate:"required,max=200"`
	Email       string  `json:"email" validate:"required,email"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=32"`
}

type CreateNominationRequest struct {
	Nominator PersonRequest `json:"nominator"`
	Nominee   PersonRequest `json:"nominee"`
	Category  string        `json:"category" validate:"required,max=64"`
	Reason    string        `json:"reason" validate:"required,max=300"`
}

type NominationResponse struct {
	Success    bool               `json:"success"`
	Nomination *models.Nomination `json:"nomination"`
}

// ----------------------
// Admin
// ----------------------

type UpdateNominationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

type NominationListResponse struct {
	Success     bool                 `json:"success"`
	Nominations []*models.Nomination `json:"nominations"`
}

type MemberListResponse struct {
	Success bool             `json:"success"`
	Members []*models.Member `json:"members"`
}

type NominationStatsResponse struct {
	Success bool                    `json:"success"`
	Stats   *models.NominationStats `json:"stats"`
}
