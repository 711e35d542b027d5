package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// Engine executes one natural-language test task against a browser and
// returns an opaque outcome. The lifecycle controller extracts a
// human-readable summary from whatever the engine returns.
type Engine interface {
	Run(ctx context.Context, task string) (any, error)
}

// Completion is the structured payload produced by LLMEngine.
type Completion struct {
	Message string `json:"message"`
	Steps   int    `json:"steps"`
	Done    bool   `json:"done"`
}

// FinalMessage returns the engine's closing summary.
func (c Completion) FinalMessage() string { return c.Message }

// IsDone reports whether the engine finished within its step budget.
func (c Completion) IsDone() bool { return c.Done }

const engineSystemPrompt = `You are a web testing agent controlling a browser.
You are given a test case and, each turn, the current page URL and visible text.
Respond with exactly one JSON object and nothing else:
  {"action": "navigate", "value": "<url>"}
  {"action": "click", "selector": "<css selector>"}
  {"action": "type", "selector": "<css selector>", "value": "<text>"}
  {"action": "done", "message": "<summary of the test results and any issues found>"}
When every step has been executed and verified, respond with the done action.`

// action is one parsed model instruction.
type action struct {
	Action   string `json:"action"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Message  string `json:"message,omitempty"`
}

// page is the minimal browser surface the engine drives. rodPage backs
// it in production; tests substitute a scripted fake.
type page interface {
	Navigate(url string) error
	Click(selector string) error
	Type(selector, text string) error
	Text() (string, error)
	URL() string
	Close() error
}

// Options configures an LLMEngine.
type Options struct {
	Provider    Provider
	Browser     *rod.Browser
	Model       string
	MaxSteps    int
	Temperature float64
	Logger      zerolog.Logger
}

// LLMEngine drives a browser page with provider calls, one action per
// step, bounded by MaxSteps.
type LLMEngine struct {
	provider    Provider
	newPage     func(ctx context.Context) (page, error)
	model       string
	maxSteps    int
	temperature float64
	logger      zerolog.Logger
}

// NewLLMEngine creates an engine bound to one browser resource.
func NewLLMEngine(opts Options) *LLMEngine {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 25
	}

	e := &LLMEngine{
		provider:    opts.Provider,
		model:       opts.Model,
		maxSteps:    maxSteps,
		temperature: opts.Temperature,
		logger:      opts.Logger,
	}
	e.newPage = func(ctx context.Context) (page, error) {
		if opts.Browser == nil {
			return nil, fmt.Errorf("no browser attached to engine")
		}
		p, err := opts.Browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		return &rodPage{page: p.Context(ctx)}, nil
	}
	return e
}

// Run executes the task and returns a Completion.
func (e *LLMEngine) Run(ctx context.Context, task string) (any, error) {
	p, err := e.newPage(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	var history []string

	for step := 1; step <= e.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := e.provider.Call(ctx, Request{
			Model:       e.model,
			System:      engineSystemPrompt,
			Prompt:      e.buildPrompt(task, p, history),
			Temperature: e.temperature,
			MaxTokens:   1024,
		})
		if err != nil {
			return nil, fmt.Errorf("llm call failed at step %d: %w", step, err)
		}

		act, ok := parseAction(resp.Content)
		if !ok || act.Action == "done" {
			message := act.Message
			if message == "" {
				message = strings.TrimSpace(resp.Content)
			}
			return Completion{Message: message, Steps: step, Done: true}, nil
		}

		history = append(history, e.apply(p, act))
	}

	return Completion{
		Message: fmt.Sprintf("step limit of %d reached before the task finished", e.maxSteps),
		Steps:   e.maxSteps,
		Done:    false,
	}, nil
}

// apply executes one action and returns a history line for the model.
func (e *LLMEngine) apply(p page, act action) string {
	var err error
	switch act.Action {
	case "navigate":
		err = p.Navigate(act.Value)
	case "click":
		err = p.Click(act.Selector)
	case "type":
		err = p.Type(act.Selector, act.Value)
	default:
		err = fmt.Errorf("unknown action %q", act.Action)
	}

	desc := act.Action
	if act.Selector != "" {
		desc += " " + act.Selector
	}
	if act.Value != "" {
		desc += " " + act.Value
	}
	if err != nil {
		e.logger.Debug().Str("action", act.Action).Err(err).Msg("Browser action failed")
		return fmt.Sprintf("%s -> error: %v", desc, err)
	}
	return fmt.Sprintf("%s -> ok", desc)
}

func (e *LLMEngine) buildPrompt(task string, p page, history []string) string {
	var b strings.Builder
	b.WriteString(task)
	fmt.Fprintf(&b, "\n\nCurrent URL: %s\n", p.URL())

	if text, err := p.Text(); err == nil {
		if len(text) > 2000 {
			text = text[:2000] + "..."
		}
		fmt.Fprintf(&b, "Visible page text:\n%s\n", text)
	}

	if len(history) > 0 {
		b.WriteString("\nActions taken so far:\n")
		for i, h := range history {
			fmt.Fprintf(&b, "%d. %s\n", i+1, h)
		}
	}

	b.WriteString("\nRespond with the next action as JSON.")
	return b.String()
}

// parseAction extracts a JSON action from the model reply. Prose
// replies are treated as a final summary by the caller.
func parseAction(content string) (action, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return action{}, false
	}

	var act action
	if err := json.Unmarshal([]byte(content[start:end+1]), &act); err != nil {
		return action{}, false
	}
	if act.Action == "" {
		return action{}, false
	}
	return act, true
}

// rodPage adapts *rod.Page to the engine's page interface.
type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(url string) error {
	if err := p.page.Navigate(url); err != nil {
		return err
	}
	return p.page.WaitLoad()
}

func (p *rodPage) Click(selector string) error {
	el, err := p.page.Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) Type(selector, text string) error {
	el, err := p.page.Element(selector)
	if err != nil {
		return err
	}
	return el.Input(text)
}

func (p *rodPage) Text() (string, error) {
	el, err := p.page.Element("body")
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
