// Package agent provides the language-model providers and the
// browser-driving execution engine used to run natural-language test
// tasks. Provider selection walks an ordered factory list and falls
// back to a deterministic mock when no credential is configured, so
// the service never blocks on missing API keys.
package agent
