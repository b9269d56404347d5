package controllers

import (
	"net/http"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/dtos"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/services"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
)

// NominationController serves the public nomination form.
type NominationController struct {
	nominationService services.NominationService
}

func NewNominationController(nominationService services.NominationService) *NominationController {
	return &NominationController{nominationService: nominationService}
}

// POST /api/v1/nominations
func (c *NominationController) CreateNomination(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateNominationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	n, err := c.nominationService.Create(r.Context(), services.CreateNominationInput{
		Nominator: toPersonInput(req.Nominator),
		Nominee:   toPersonInput(req.Nominee),
		Category:  req.Category,
		Reason:    req.Reason,
	})
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.NominationResponse{Success: true, Nomination: n})
}

func toPersonInput(p dtos.PersonRequest) services.PersonInput {
	return services.PersonInput{
		FullName: p.FullName,
		Email:    p.Email,
		Phone:    p.PhoneNumber,
	}
}
