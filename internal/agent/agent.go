// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent implements the conversational research assistant: a
// language-model-driven tool dispatcher with conversation memory, and the
// read-eval-print loop around it.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/llm"
	"github.com/pdiddy/paper-explorer/internal/tracing"
)

// FinalAnswer is the action name that ends a turn.
const FinalAnswer = "Final Answer"

// DefaultMaxSteps bounds the tool calls in one turn.
const DefaultMaxSteps = 5

// StoppedMessage is returned when a turn runs out of steps.
const StoppedMessage = "Agent stopped due to iteration limit or time limit."

var systemPromptTmpl = template.Must(template.New("system").Parse(`Assistant is a research assistant that helps the user explore recent AI research papers. Assistant can search the current papers, search the user's saved papers, and add or remove papers from the saved set.

TOOLS
------
Assistant can use the following tools:

{{range .Tools}}> {{.Name}}: {{.Description}}
{{end}}
RESPONSE FORMAT INSTRUCTIONS
----------------------------
Always respond with a single JSON object and nothing else, in one of two forms.

To use a tool:
{"action": string, "action_input": string}
where "action" is one of {{.ToolNames}} and "action_input" is the input to the tool.

To reply to the user:
{"action": "Final Answer", "action_input": string}
where "action_input" is your reply.`))

var userPromptTmpl = template.Must(template.New("user").Parse(`{{if .History}}CONVERSATION SO FAR
--------------------
{{.History}}
{{end}}USER'S INPUT
--------------------
{{.Input}}
{{range .Steps}}
TOOL RESPONSE ({{.Action}} with input {{printf "%q" .Input}})
---------------------
{{.Observation}}
{{end}}{{if .Steps}}
Using the tool responses above, either call another tool or give the Final Answer. Remember to respond with a single JSON object.{{end}}`))

// Step is one tool call within a turn.
type Step struct {
	Action      string
	Input       string
	Observation string
}

// Agent routes user input to tools through a language model and keeps the
// conversation in Memory.
type Agent struct {
	LLM      llm.Completer
	Tools    []Tool
	Memory   *Memory
	MaxSteps int
	Logger   *zap.Logger

	sessionID string
}

// New builds an Agent with a fresh session and empty memory.
func New(c llm.Completer, tools []Tool, maxSteps int, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Agent{
		LLM:       c,
		Tools:     tools,
		Memory:    &Memory{},
		MaxSteps:  maxSteps,
		Logger:    logger.Named("agent").With(zap.String("session", id)),
		sessionID: id,
	}
}

// SessionID identifies this conversation in logs and traces.
func (a *Agent) SessionID() string { return a.sessionID }

type action struct {
	Action      string          `json:"action"`
	ActionInput json.RawMessage `json:"action_input"`
}

// Run handles one user turn and returns the reply. Tool and model failures
// are returned as errors; the turn is then not added to memory.
func (a *Agent) Run(ctx context.Context, input string) (reply string, err error) {
	ctx, span := tracing.StartSpan(ctx, "agent.turn", attribute.String("session", a.sessionID))
	defer func() { tracing.End(span, err) }()

	system, err := a.systemPrompt()
	if err != nil {
		return "", err
	}

	maxSteps := a.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	var steps []Step
	for i := 0; i <= maxSteps; i++ {
		user, err := a.userPrompt(input, steps)
		if err != nil {
			return "", err
		}

		raw, err := a.LLM.Complete(ctx, system, user)
		if err != nil {
			return "", err
		}

		act, actInput, err := parseAction(raw)
		if err != nil {
			return "", err
		}

		if act == FinalAnswer {
			a.remember(input, actInput)
			span.SetAttributes(attribute.Int("steps", len(steps)))
			return actInput, nil
		}
		if i == maxSteps {
			break
		}

		obs, err := a.runTool(ctx, act, actInput)
		if err != nil {
			return "", err
		}
		steps = append(steps, Step{Action: act, Input: actInput, Observation: obs})
	}

	a.logger().Warn("turn hit step limit", zap.Int("max_steps", maxSteps))
	a.remember(input, StoppedMessage)
	return StoppedMessage, nil
}

func (a *Agent) runTool(ctx context.Context, name, input string) (string, error) {
	for _, t := range a.Tools {
		if t.Name() == name {
			a.logger().Debug("calling tool", zap.String("tool", name), zap.String("input", input))
			ctx, span := tracing.StartSpan(ctx, "agent.tool", attribute.String("tool", name))
			obs, err := t.Run(ctx, input)
			tracing.End(span, err)
			if err != nil {
				return "", fmt.Errorf("tool %s: %w", name, err)
			}
			return obs, nil
		}
	}
	a.logger().Debug("model chose unknown tool", zap.String("tool", name))
	return fmt.Sprintf("%s is not a valid tool, try one of [%s].", name, strings.Join(a.toolNames(), ", ")), nil
}

func (a *Agent) remember(input, reply string) {
	if a.Memory != nil {
		a.Memory.Add(input, reply)
	}
}

func (a *Agent) toolNames() []string {
	names := make([]string, len(a.Tools))
	for i, t := range a.Tools {
		names[i] = t.Name()
	}
	return names
}

func (a *Agent) systemPrompt() (string, error) {
	var buf bytes.Buffer
	err := systemPromptTmpl.Execute(&buf, struct {
		Tools     []Tool
		ToolNames string
	}{Tools: a.Tools, ToolNames: strings.Join(a.toolNames(), ", ")})
	if err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return buf.String(), nil
}

func (a *Agent) userPrompt(input string, steps []Step) (string, error) {
	history := ""
	if a.Memory != nil {
		history = a.Memory.Transcript()
	}
	var buf bytes.Buffer
	err := userPromptTmpl.Execute(&buf, struct {
		History string
		Input   string
		Steps   []Step
	}{History: history, Input: input, Steps: steps})
	if err != nil {
		return "", fmt.Errorf("rendering user prompt: %w", err)
	}
	return buf.String(), nil
}

func (a *Agent) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// parseAction extracts the action object from a model reply. The object may
// be wrapped in a Markdown code fence or surrounded by prose.
func parseAction(raw string) (string, string, error) {
	text := strings.TrimSpace(raw)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", "", apperr.Input("agent.parse", "could not parse model output: %q", truncate(text, 200))
	}

	var act action
	if err := json.Unmarshal([]byte(text[start:end+1]), &act); err != nil {
		return "", "", apperr.Input("agent.parse", "could not parse model output: %v", err)
	}
	act.Action = strings.TrimSpace(act.Action)
	if act.Action == "" {
		return "", "", apperr.Input("agent.parse", "model output has no action")
	}

	var input string
	if len(act.ActionInput) > 0 {
		if err := json.Unmarshal(act.ActionInput, &input); err != nil {
			// Non-string inputs are passed through as their JSON text.
			input = string(act.ActionInput)
		}
	}
	return act.Action, input, nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
