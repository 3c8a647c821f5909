package auth

// Delegated access status values returned in tool results.
const (
	// StatusOK indicates a valid access token was obtained for the call.
	StatusOK = "ok"

	// StatusAuthRequired indicates the user must authenticate (or
	// re-authenticate) before the tool can act on their behalf. This covers
	// a missing artifact, an artifact that no longer decodes, and a refresh
	// token the provider reports as invalid, expired, or revoked.
	StatusAuthRequired = "auth_required"

	// StatusTransientError indicates a temporary provider or network
	// failure. The call may be retried.
	StatusTransientError = "transient_error"

	// StatusConfigError indicates a deployment misconfiguration. Retrying
	// will not help; an operator has to act.
	StatusConfigError = "config_error"
)

// StatusResponse is the structured delegated-access state returned to tool
// callers when a call cannot proceed.
type StatusResponse struct {
	// Status is one of the Status* constants above.
	Status string `json:"status"`

	// Message is a human-readable description safe to show to end users.
	// It never contains provider error bodies or token material.
	Message string `json:"message,omitempty"`
}
