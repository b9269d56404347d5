// backend/shared/go-dtos/error_dtos.go
package dtos

// ValidationErrorDetail describes one failing request field.
type ValidationErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}
