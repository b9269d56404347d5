package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
)

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmailSyntax does RFC-5322-*ish* syntax only (no DNS). Display-name
// forms like "Jane <jane@x.com>" are rejected.
func IsValidEmailSyntax(e string) bool {
	addr, err := mail.ParseAddress(e)
	if err != nil {
		return false
	}
	return addr.Address == e && strings.Contains(e[strings.LastIndex(e, "@")+1:], ".")
}

func hasMX(ctx context.Context, domain string) bool {
	mx, err := net.DefaultResolver.LookupMX(ctx, domain)
	return err == nil && len(mx) > 0
}

// ValidateEmail returns true if:
//
//   - the string parses as an email, AND
//   - the domain has an MX record, AND
//   - when validateWithSendGrid is set, SendGrid's deliverability verdict is
//     "Valid" or "Risky".
//
// Any SendGrid/network error is returned so the caller can decide.
func ValidateEmail(ctx context.Context, apiKey string, email string, validateWithSendGrid bool) (bool, error) {
	if !IsValidEmailSyntax(email) {
		return false, nil
	}

	parts := strings.SplitN(email, "@", 2)
	if !hasMX(ctx, parts[1]) {
		return false, nil
	}

	if validateWithSendGrid {
		req := sendgrid.GetRequest(apiKey, "/v3/validations/email", "https://api.sendgrid.com")
		req.Method = "POST"
		body, err := json.Marshal(map[string]string{"email": email})
		if err != nil {
			return false, err
		}
		req.Body = body

		resp, err := sendgrid.API(req)
		if err != nil {
			return false, err
		}

		switch resp.StatusCode {
		case 200:
			var sg struct {
				Result struct {
					Verdict string `json:"verdict"`
				} `json:"result"`
			}
			if jsonErr := json.Unmarshal([]byte(resp.Body), &sg); jsonErr != nil {
				return false, fmt.Errorf("sendgrid JSON decode: %w", jsonErr)
			}
			verdict := strings.ToLower(sg.Result.Verdict)
			return verdict == "valid" || verdict == "risky", nil

		case 400: // SendGrid treats syntactically bad addresses as 400
			return false, nil
		default:
			return false, fmt.Errorf("sendgrid validation failed: status %d – %s", resp.StatusCode, resp.Body)
		}
	}

	return true, nil
}
