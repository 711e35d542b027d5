package browser

// Profile configures an isolated browser launch.
type Profile struct {
	Headless    bool     `json:"headless"`
	NoSandbox   bool     `json:"noSandbox"`
	ChromePath  string   `json:"chromePath,omitempty"`
	UserDataDir string   `json:"userDataDir,omitempty"`
	Args        []string `json:"args,omitempty"`
}

// hardenedArgs is the automation-friendly flag set used for isolated
// instances: strip UI affordances, keep renderers from being throttled
// in the background, and relax sandboxing for test environments.
var hardenedArgs = []string{
	"--no-first-run",
	"--no-default-browser-check",
	"--disable-default-apps",
	"--disable-extensions",
	"--start-maximized",
	"--disable-popup-blocking",
	"--disable-background-timer-throttling",
	"--disable-renderer-backgrounding",
	"--disable-backgrounding-occluded-windows",
	"--disable-web-security",
	"--disable-features=VizDisplayCompositor",
	"--disable-dev-shm-usage",
	"--disable-gpu-sandbox",
}

// Hardened returns the default profile used when provisioning an
// isolated browser for a test run.
func Hardened() Profile {
	args := make([]string, len(hardenedArgs))
	copy(args, hardenedArgs)
	return Profile{
		NoSandbox: true,
		Args:      args,
	}
}
