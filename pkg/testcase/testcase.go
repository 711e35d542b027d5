package testcase

import (
	"fmt"
	"strings"
)

// DefaultPriority is assigned when a submitted spec omits priority.
const DefaultPriority = "medium"

// Spec describes a single browser test case. Specs are immutable once
// submitted; the executor only ever reads them.
type Spec struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	TargetURL       string   `json:"target_url"`
	Steps           []string `json:"steps"`
	ExpectedResults []string `json:"expected_results"`
	Priority        string   `json:"priority"`
}

// ApplyDefaults fills in optional fields left empty by the client.
func (s *Spec) ApplyDefaults() {
	if s.Priority == "" {
		s.Priority = DefaultPriority
	}
}

// Validate checks that a spec carries everything the executor needs.
func (s *Spec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("test case id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("test case %s: name is required", s.ID)
	}
	if s.TargetURL == "" {
		return fmt.Errorf("test case %s: target_url is required", s.ID)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("test case %s: at least one step is required", s.ID)
	}
	return nil
}

// BuildTask renders the natural-language task handed to the automation
// engine: name, description, target URL, numbered steps, numbered
// expected results, and a closing instruction to capture evidence.
func BuildTask(spec Spec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Test Case: %s\n", spec.Name)
	fmt.Fprintf(&b, "Description: %s\n", spec.Description)
	fmt.Fprintf(&b, "Target URL: %s\n", spec.TargetURL)
	b.WriteString("\nTest Steps:\n")

	for i, step := range spec.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	b.WriteString("\nExpected Results:\n")
	for i, expected := range spec.ExpectedResults {
		fmt.Fprintf(&b, "%d. %s\n", i+1, expected)
	}

	b.WriteString("\nPlease execute this test carefully and report any issues you find.\n")
	b.WriteString("Take screenshots of important steps and any problems discovered.\n")
	b.WriteString("Provide a clear summary of the test results.")

	return b.String()
}
