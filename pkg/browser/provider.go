package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/rs/zerolog"
)

// Resource is one exclusively-owned browser connection. When launched
// by this process the launcher is retained so Release can kill it.
type Resource struct {
	Browser  *rod.Browser
	launcher *launcher.Launcher
	attached bool
}

// Attached reports whether the resource wraps an externally-owned
// browser rather than one this process launched.
func (r *Resource) Attached() bool {
	return r.attached
}

// Provider acquires and releases browser resources.
type Provider interface {
	// AttachExisting connects to an already-running browser over CDP.
	AttachExisting(ctx context.Context, cdpURL string) (*Resource, error)

	// ProvisionIsolated launches a dedicated browser with the given profile.
	ProvisionIsolated(ctx context.Context, profile Profile) (*Resource, error)

	// Release closes the resource. Safe to call with nil.
	Release(res *Resource) error
}

// RodProvider implements Provider on top of rod's launcher and CDP client.
type RodProvider struct {
	logger zerolog.Logger
}

// NewRodProvider creates a rod-backed browser provider.
func NewRodProvider(logger zerolog.Logger) *RodProvider {
	return &RodProvider{logger: logger}
}

// AttachExisting connects to an external browser's CDP endpoint.
func (p *RodProvider) AttachExisting(ctx context.Context, cdpURL string) (*Resource, error) {
	if cdpURL == "" {
		return nil, &BrowserError{
			Code:    ErrCodeConfiguration,
			Message: "CDP URL is required to attach to an existing browser",
		}
	}

	b := rod.New().ControlURL(cdpURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, &BrowserError{
			Code:    ErrCodeAttach,
			Message: fmt.Sprintf("failed to attach to browser at %s: %v", cdpURL, err),
		}
	}

	p.logger.Info().Str("cdp_url", cdpURL).Msg("Attached to existing browser")

	return &Resource{Browser: b, attached: true}, nil
}

// ProvisionIsolated launches a fresh browser owned by this process.
func (p *RodProvider) ProvisionIsolated(ctx context.Context, profile Profile) (*Resource, error) {
	l := launcher.New().Headless(profile.Headless)

	if profile.NoSandbox {
		l = l.NoSandbox(true)
	}
	if profile.ChromePath != "" {
		l = l.Bin(profile.ChromePath)
	}
	if profile.UserDataDir != "" {
		l = l.UserDataDir(profile.UserDataDir)
	}
	applyArgs(l, profile.Args)

	url, err := l.Launch()
	if err != nil {
		return nil, &BrowserError{
			Code:    ErrCodeLaunch,
			Message: fmt.Sprintf("failed to launch browser: %v", err),
		}
	}

	b := rod.New().ControlURL(url).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, &BrowserError{
			Code:    ErrCodeLaunch,
			Message: fmt.Sprintf("failed to connect to launched browser: %v", err),
		}
	}

	p.logger.Info().
		Bool("headless", profile.Headless).
		Int("args", len(profile.Args)).
		Msg("Provisioned isolated browser")

	return &Resource{Browser: b, launcher: l}, nil
}

// Release closes the browser connection and, for launched instances,
// kills the underlying process.
func (p *RodProvider) Release(res *Resource) error {
	if res == nil {
		return nil
	}

	var closeErr error
	if res.Browser != nil {
		closeErr = res.Browser.Close()
		res.Browser = nil
	}

	if res.launcher != nil {
		res.launcher.Kill()
		res.launcher.Cleanup()
		res.launcher = nil
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close browser: %w", closeErr)
	}
	return nil
}

// applyArgs translates "--flag" / "--flag=value" strings onto the launcher.
func applyArgs(l *launcher.Launcher, args []string) {
	for _, arg := range args {
		name, value := SplitArg(arg)
		if name == "" {
			continue
		}
		if value == "" {
			l.Set(flags.Flag(name))
		} else {
			l.Set(flags.Flag(name), value)
		}
	}
}

// SplitArg splits a Chrome command-line argument into flag name and value.
func SplitArg(arg string) (name, value string) {
	arg = strings.TrimLeft(arg, "-")
	if idx := strings.Index(arg, "="); idx >= 0 {
		return arg[:idx], arg[idx+1:]
	}
	return arg, ""
}
