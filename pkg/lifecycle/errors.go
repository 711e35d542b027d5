package lifecycle

import "errors"

// AgentError carries a machine-readable code alongside the message.
type AgentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AgentError) Error() string {
	return e.Message
}

// Error codes
const (
	ErrCodeProvisioning = "PROVISIONING_ERROR"
	ErrCodeInvalidState = "INVALID_STATE"
	ErrCodeExecution    = "EXECUTION_ERROR"
)

// IsProvisioning reports whether err is a resource-acquisition failure.
func IsProvisioning(err error) bool {
	var ae *AgentError
	return errors.As(err, &ae) && ae.Code == ErrCodeProvisioning
}

// IsInvalidState reports whether err is a state-machine violation.
func IsInvalidState(err error) bool {
	var ae *AgentError
	return errors.As(err, &ae) && ae.Code == ErrCodeInvalidState
}
