package testcase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() Spec {
	return Spec{
		ID:              "tc-1",
		Name:            "Login works",
		Description:     "Verify a registered user can log in",
		TargetURL:       "https://example.com/login",
		Steps:           []string{"Open the login page", "Submit valid credentials"},
		ExpectedResults: []string{"Dashboard is shown"},
	}
}

// TestSpec_Validate_Valid tests that a complete spec passes validation
func TestSpec_Validate_Valid(t *testing.T) {
	spec := validSpec()
	assert.NoError(t, spec.Validate())
}

// TestSpec_Validate_MissingFields tests each required field
func TestSpec_Validate_MissingFields(t *testing.T) {
	spec := validSpec()
	spec.ID = ""
	err := spec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")

	spec = validSpec()
	spec.Name = ""
	err = spec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	spec = validSpec()
	spec.TargetURL = ""
	err = spec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_url is required")

	spec = validSpec()
	spec.Steps = nil
	err = spec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one step")
}

// TestSpec_ApplyDefaults tests priority defaulting
func TestSpec_ApplyDefaults(t *testing.T) {
	spec := validSpec()
	spec.ApplyDefaults()
	assert.Equal(t, DefaultPriority, spec.Priority)

	spec.Priority = "high"
	spec.ApplyDefaults()
	assert.Equal(t, "high", spec.Priority)
}

// TestBuildTask tests the rendered task text
func TestBuildTask(t *testing.T) {
	task := BuildTask(validSpec())

	assert.True(t, strings.HasPrefix(task, "Test Case: Login works\n"))
	assert.Contains(t, task, "Description: Verify a registered user can log in\n")
	assert.Contains(t, task, "Target URL: https://example.com/login\n")
	assert.Contains(t, task, "\nTest Steps:\n1. Open the login page\n2. Submit valid credentials\n")
	assert.Contains(t, task, "\nExpected Results:\n1. Dashboard is shown\n")
	assert.Contains(t, task, "report any issues you find")
	assert.True(t, strings.HasSuffix(task, "Provide a clear summary of the test results."))
}

// TestRunConfig_ApplyDefaults tests zero-value settings are filled in
func TestRunConfig_ApplyDefaults(t *testing.T) {
	var cfg RunConfig
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultBrowserType, cfg.BrowserType)
	assert.Equal(t, DefaultCDPURL, cfg.CDPURL)
	assert.Equal(t, DefaultMaxSteps, cfg.MaxSteps)
	assert.Equal(t, DefaultMaxConcurrent, cfg.MaxConcurrent)
	assert.False(t, cfg.Parallel)
	assert.False(t, cfg.UseExistingBrowser)
}

// TestRunConfig_ApplyDefaults_PreservesValues tests explicit settings survive
func TestRunConfig_ApplyDefaults_PreservesValues(t *testing.T) {
	cfg := RunConfig{
		BrowserType:   "firefox",
		CDPURL:        "ws://remote:9333",
		MaxSteps:      5,
		MaxConcurrent: 8,
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "firefox", cfg.BrowserType)
	assert.Equal(t, "ws://remote:9333", cfg.CDPURL)
	assert.Equal(t, 5, cfg.MaxSteps)
	assert.Equal(t, 8, cfg.MaxConcurrent)
}

// TestErrorResult tests the synthesized error record
func TestErrorResult(t *testing.T) {
	r := ErrorResult("tc-9", "browser crashed")

	assert.Equal(t, "tc-9", r.TestCaseID)
	assert.Equal(t, OutcomeError, r.Outcome)
	assert.Equal(t, "browser crashed", r.Message)
	assert.False(t, r.Timestamp.IsZero())
}
