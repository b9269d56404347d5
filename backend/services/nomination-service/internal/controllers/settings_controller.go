package controllers

import (
	"net/http"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/dtos"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/services"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
)

type SettingsController struct {
	window services.WindowController
}

func NewSettingsController(window services.WindowController) *SettingsController {
	return &SettingsController{window: window}
}

// GET /api/v1/nomination-settings?year=
func (c *SettingsController) GetSettings(w http.ResponseWriter, r *http.Request) {
	year, ok := queryYear(w, r)
	if !ok {
		return
	}
	y := c.window.CurrentYear()
	if year != nil {
		y = *year
	}
	settings, err := c.window.GetSettings(r.Context(), y)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SettingsResponse{Success: true, Settings: settings})
}

// GET /api/v1/admin/nomination-settings
func (c *SettingsController) ListYears(w http.ResponseWriter, r *http.Request) {
	list, err := c.window.ListYears(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SettingsListResponse{Success: true, Settings: list})
}

// POST /api/v1/admin/nomination-settings/toggle
func (c *SettingsController) Toggle(w http.ResponseWriter, r *http.Request) {
	var req dtos.ToggleNominationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	settings, err := c.window.Toggle(r.Context(), *req.IsOpen)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SettingsResponse{Success: true, Settings: settings})
}

// POST /api/v1/admin/nomination-settings
func (c *SettingsController) CreateYear(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateNominationYearRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	settings, err := c.window.CreateYear(r.Context(), req.Year)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.SettingsResponse{Success: true, Settings: settings})
}
