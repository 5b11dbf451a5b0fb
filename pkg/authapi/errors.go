package authapi

import (
	"errors"
	"fmt"
)

// Backend error codes the client switches messages on. The login flow router
// never branches on these; they only select a more specific user-facing
// message.
const (
	CodeIncorrectPassword     = "incorrect_password"
	CodeIncorrectCode         = "incorrect_code"
	CodeOrganizationNotFound  = "organization_not_found"
	CodeUnauthenticated       = "unauthenticated"
	CodeLoginFlowIncomplete   = "login_flow_incomplete"
	CodePasskeyUnknown        = "unknown_passkey_credential"
	CodeEmailNotVerified      = "email_not_verified"
	CodeLoginMethodNotAllowed = "login_method_not_allowed"
)

// APIError is a machine-readable backend error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %s (%d): %s", e.Code, e.Status, e.Message)
}

// HasCode reports whether err is or wraps an *APIError carrying code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
