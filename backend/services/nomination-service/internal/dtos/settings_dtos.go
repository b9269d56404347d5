package dtos

import "github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"

// IsOpen is a pointer so an omitted field fails validation instead of
// silently closing the window.
type ToggleNominationRequest struct {
	IsOpen *bool `json:"is_open" validate:"required"`
}

type CreateNominationYearRequest struct {
	Year int `json:"year" validate:"required,gte=2000,lte=2100"`
}

type SettingsResponse struct {
	Success  bool                       `json:"success"`
	Settings *models.NominationSettings `json:"settings"`
}

type SettingsListResponse struct {
	Success  bool                         `json:"success"`
	Settings []*models.NominationSettings `json:"settings"`
}
