package controllers

import (
	"net/http"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/dtos"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/services"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
)

type VerificationController struct {
	verificationService services.VerificationService
}

func NewVerificationController(verificationService services.VerificationService) *VerificationController {
	return &VerificationController{verificationService: verificationService}
}

// POST /api/v1/verification/send
func (c *VerificationController) SendCode(w http.ResponseWriter, r *http.Request) {
	var req dtos.SendVerificationCodeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := c.verificationService.SendCode(r.Context(), req.Email); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SuccessResponse{
		Success: true,
		Message: "Verification code sent",
	})
}

// POST /api/v1/verification/verify
func (c *VerificationController) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req dtos.VerifyCodeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := c.verificationService.Verify(r.Context(), req.Email, req.Code); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SuccessResponse{
		Success: true,
		Message: "Email verified",
	})
}
