package lifecycle

import "fmt"

// finalMessager is implemented by engine outcomes that expose a closing
// summary, such as agent.Completion.
type finalMessager interface {
	FinalMessage() string
}

type doneReporter interface {
	IsDone() bool
}

// ExtractSummary pulls a human-readable summary out of an engine
// outcome. It supports outcomes exposing a final message, plain
// strings, and structured payloads carrying a "message" field, and
// falls back to a generic completion note.
func ExtractSummary(outcome any) string {
	switch v := outcome.(type) {
	case finalMessager:
		if msg := v.FinalMessage(); msg != "" {
			return msg
		}
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
	}

	if d, ok := outcome.(doneReporter); ok {
		return fmt.Sprintf("Test executed successfully. Task completed: %v", d.IsDone())
	}
	return "Test completed"
}
