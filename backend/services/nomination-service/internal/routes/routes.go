package routes

const (
	// Health & ops
	Health  = "/health"
	Metrics = "/metrics"

	// Public endpoints
	NominationsBase    = "/api/v1/nominations"
	NominationSettings = "/api/v1/nomination-settings"
	VerificationSend   = "/api/v1/verification/send"
	VerificationVerify = "/api/v1/verification/verify"

	// Admin endpoints
	AdminBase                     = "/api/v1/admin"
	AdminNominations              = "/api/v1/admin/nominations"
	AdminNominationStats          = "/api/v1/admin/nominations/stats"
	AdminNominationByID           = "/api/v1/admin/nominations/{id}"
	AdminNominationStatus         = "/api/v1/admin/nominations/{id}/status"
	AdminNominationSettings       = "/api/v1/admin/nomination-settings"
	AdminNominationSettingsToggle = "/api/v1/admin/nomination-settings/toggle"
	AdminEligibleMembers          = "/api/v1/admin/members/eligible"
)
