package testcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateStartPayload_Valid tests a well-formed request
func TestValidateStartPayload_Valid(t *testing.T) {
	body := `{
		"test_cases": [
			{"id": "tc-1", "name": "Login", "target_url": "https://example.com", "steps": ["open page"]}
		],
		"config": {"headless": true, "max_concurrent": 3}
	}`
	assert.NoError(t, ValidateStartPayload([]byte(body)))
}

// TestValidateStartPayload_EmptyTestCases tests that an empty batch is rejected
func TestValidateStartPayload_EmptyTestCases(t *testing.T) {
	body := `{"test_cases": []}`
	err := ValidateStartPayload([]byte(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request validation failed")
}

// TestValidateStartPayload_MissingRequiredField tests a test case without a target URL
func TestValidateStartPayload_MissingRequiredField(t *testing.T) {
	body := `{"test_cases": [{"id": "tc-1", "name": "Login", "steps": ["open page"]}]}`
	err := ValidateStartPayload([]byte(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_url")
}

// TestValidateStartPayload_BadPriority tests the priority enum
func TestValidateStartPayload_BadPriority(t *testing.T) {
	body := `{
		"test_cases": [
			{"id": "tc-1", "name": "Login", "target_url": "https://example.com", "steps": ["open"], "priority": "urgent"}
		]
	}`
	err := ValidateStartPayload([]byte(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority")
}

// TestValidateStartPayload_WrongTypes tests type mismatches in config
func TestValidateStartPayload_WrongTypes(t *testing.T) {
	body := `{
		"test_cases": [
			{"id": "tc-1", "name": "Login", "target_url": "https://example.com", "steps": ["open"]}
		],
		"config": {"headless": "yes"}
	}`
	assert.Error(t, ValidateStartPayload([]byte(body)))
}
