package testcase

import "time"

// Outcome classifies how a single test execution ended.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
	OutcomeError  Outcome = "error"
)

// Result is the canonical record of one executed test case. Results are
// appended to a session's log in submission order and never mutated.
type Result struct {
	TestCaseID    string    `json:"test_case_id"`
	Outcome       Outcome   `json:"status"`
	Message       string    `json:"message"`
	ExecutionTime float64   `json:"execution_time"` // seconds
	Timestamp     time.Time `json:"timestamp"`
}

// ErrorResult synthesizes a Result for a test case that failed before
// or outside normal execution.
func ErrorResult(testCaseID, message string) Result {
	return Result{
		TestCaseID: testCaseID,
		Outcome:    OutcomeError,
		Message:    message,
		Timestamp:  time.Now(),
	}
}
