package controllers

import (
	"net/http"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/dtos"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/services"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
)

// AdminNominationController backs the admin dashboard.
type AdminNominationController struct {
	nominationService services.NominationService
}

func NewAdminNominationController(nominationService services.NominationService) *AdminNominationController {
	return &AdminNominationController{nominationService: nominationService}
}

// PATCH /api/v1/admin/nominations/{id}/status
func (c *AdminNominationController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.UpdateNominationStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	n, err := c.nominationService.UpdateStatus(r.Context(), id, models.NominationStatusType(req.Status))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NominationResponse{Success: true, Nomination: n})
}

// GET /api/v1/admin/nominations?year=
func (c *AdminNominationController) ListNominations(w http.ResponseWriter, r *http.Request) {
	year, ok := queryYear(w, r)
	if !ok {
		return
	}
	list, err := c.nominationService.ListAll(r.Context(), year)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NominationListResponse{Success: true, Nominations: list})
}

// GET /api/v1/admin/nominations/{id}
func (c *AdminNominationController) GetNomination(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	n, err := c.nominationService.GetByID(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NominationResponse{Success: true, Nomination: n})
}

// GET /api/v1/admin/members/eligible
func (c *AdminNominationController) ListEligibleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := c.nominationService.ListEligibleMembers(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MemberListResponse{Success: true, Members: members})
}

// GET /api/v1/admin/nominations/stats?year=
func (c *AdminNominationController) GetStats(w http.ResponseWriter, r *http.Request) {
	year, ok := queryYear(w, r)
	if !ok {
		return
	}
	stats, err := c.nominationService.GetStats(r.Context(), year)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NominationStatsResponse{Success: true, Stats: stats})
}
