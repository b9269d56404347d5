package dtos

// ----------------------
// Email Verification
// ----------------------

type SendVerificationCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Code format is checked by the service so malformed and wrong codes get
// the same answer.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
