package testcase

// RunConfig carries the per-session execution settings submitted with a
// batch of test cases.
type RunConfig struct {
	BrowserType        string `json:"browser_type"`
	Headless           bool   `json:"headless"`
	ViewportWidth      int    `json:"viewport_width"`
	ViewportHeight     int    `json:"viewport_height"`
	Timeout            int    `json:"timeout"` // milliseconds, carried to the engine
	KeepBrowserOpen    bool   `json:"keep_browser_open"`
	UseExistingBrowser bool   `json:"use_existing_browser"`
	CDPURL             string `json:"cdp_url"`
	MaxSteps           int    `json:"max_steps"`
	Parallel           bool   `json:"parallel"`
	MaxConcurrent      int    `json:"max_concurrent"`
}

const (
	DefaultBrowserType   = "chromium"
	DefaultCDPURL        = "ws://localhost:9222"
	DefaultMaxSteps      = 25
	DefaultMaxConcurrent = 2
)

// ApplyDefaults fills in zero-valued settings.
func (c *RunConfig) ApplyDefaults() {
	if c.BrowserType == "" {
		c.BrowserType = DefaultBrowserType
	}
	if c.CDPURL == "" {
		c.CDPURL = DefaultCDPURL
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
}
