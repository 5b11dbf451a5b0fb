// Package config loads the client configuration from environment variables.
//
// All settings have working defaults so the demo runs with nothing set. The
// variables share the AUTHFLOW_ prefix:
//
//	AUTHFLOW_BASE_URL       backend base URL
//	AUTHFLOW_HTTP_TIMEOUT   per-request HTTP timeout
//	AUTHFLOW_TOKEN_DIR      token file directory; empty keeps tokens in memory
//	AUTHFLOW_REFRESH_SKEW   how early before expiry the refresher runs
//	AUTHFLOW_SMTP_*         outbound email for verification codes
package config
