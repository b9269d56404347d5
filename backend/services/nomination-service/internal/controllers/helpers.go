package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	shared_dtos "github.com/Arshie13/FAPRNA-sub000/backend/shared/go-dtos"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var validate = validator.New()

// decodeAndValidate writes a 400 and returns false when the body is not
// valid JSON or fails its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", formatValidationErrors(err), err,
		)
		return false
	}
	return true
}

// formatValidationErrors turns validator output into field-level details.
func formatValidationErrors(err error) []shared_dtos.ValidationErrorDetail {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	details := make([]shared_dtos.ValidationErrorDetail, 0, len(errs))
	for _, fe := range errs {
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("Field '%s' is required", fe.Field())
		case "email":
			message = fmt.Sprintf("Field '%s' must be a valid email address", fe.Field())
		case "max":
			message = fmt.Sprintf("Field '%s' must not exceed %s", fe.Field(), fe.Param())
		case "gte", "lte":
			message = fmt.Sprintf("Field '%s' must be %s %s", fe.Field(), fe.Tag(), fe.Param())
		case "oneof":
			message = fmt.Sprintf("Field '%s' must be one of: %s", fe.Field(), fe.Param())
		default:
			message = fmt.Sprintf("Field '%s' is invalid", fe.Field())
		}
		details = append(details, shared_dtos.ValidationErrorDetail{
			Field:   fe.Namespace(),
			Message: message,
			Code:    "validation_" + fe.Tag(),
		})
	}
	return details
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid "+name, nil, err,
		)
		return uuid.Nil, false
	}
	return id, true
}

// queryYear parses ?year=. Absent means nil.
func queryYear(w http.ResponseWriter, r *http.Request) (*int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return nil, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "year must be an integer", nil, err,
		)
		return nil, false
	}
	return &year, true
}
