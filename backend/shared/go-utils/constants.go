package utils

const (
	OrganizationName                      = "FAPRNA"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
)
