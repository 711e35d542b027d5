package browser

// BrowserError carries a machine-readable code alongside the message.
type BrowserError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *BrowserError) Error() string {
	return e.Message
}

// Error codes
const (
	ErrCodeAttach        = "ATTACH_ERROR"
	ErrCodeLaunch        = "LAUNCH_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
)
