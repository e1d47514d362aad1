// Package variables resolves {{ }} references in node inputs against request scoped values.
package variables

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dukex/updlflow/pkg/models"
)

const (
	varsPrefix = "$vars."
	flowPrefix = "$flow."

	placeholderQuestion       = "question"
	placeholderChatHistory    = "chat_history"
	placeholderFileAttachment = "file_attachment"

	instancePath = "data.instance"
)

// A reference starts with a letter, an underscore or a dollar sign so that Go
// templates such as {{ .name }} pass through untouched.
var referencePattern = regexp.MustCompile(`\{\{\s*([A-Za-z_$][\w$.\-]*)\s*\}\}`)

// Scope holds every value a reference may resolve to during one invocation.
type Scope struct {
	// Outputs maps executed node ids to their outputs.
	Outputs        map[string]any
	Question       string
	ChatHistory    []models.HistoryMessage
	Config         *models.FlowConfig
	FileAttachment string
	// Variables are the globally stored variables.
	Variables map[string]any
	// Overrides are the request supplied vars.
	Overrides map[string]any
}

// Resolver substitutes references in node inputs.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver for node input references.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger.With("module", "variable_resolver")}
}

// Resolve returns a copy of data with every reference replaced. Inputs left
// empty fall back to the declared parameter default. The input is never
// modified and unresolved references become empty values.
func (r *Resolver) Resolve(data *models.NodeData, scope *Scope) *models.NodeData {
	resolved := data.Clone()
	if resolved == nil {
		return nil
	}

	if scope == nil {
		scope = &Scope{}
	}

	if resolved.Inputs == nil {
		resolved.Inputs = make(map[string]any)
	}

	for name, value := range resolved.Inputs {
		resolved.Inputs[name] = r.resolveValue(data.ID, value, scope)
	}

	for _, param := range resolved.InputParams {
		if param.Default == nil {
			continue
		}

		if value, ok := resolved.Inputs[param.Name]; !ok || isEmpty(value) {
			resolved.Inputs[param.Name] = r.resolveValue(data.ID, models.CloneValue(param.Default), scope)
		}
	}

	return resolved
}

func (r *Resolver) resolveValue(nodeID string, value any, scope *Scope) any {
	switch v := value.(type) {
	case string:
		return r.resolveString(nodeID, v, scope)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = r.resolveValue(nodeID, item, scope)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.resolveValue(nodeID, item, scope)
		}

		return out
	default:
		return value
	}
}

func (r *Resolver) resolveString(nodeID, s string, scope *Scope) any {
	if !strings.Contains(s, "{{") {
		return s
	}

	// A value made of one reference keeps the referenced type.
	trimmed := strings.TrimSpace(s)
	if m := referencePattern.FindStringSubmatchIndex(trimmed); m != nil && m[0] == 0 && m[1] == len(trimmed) {
		expr := trimmed[m[2]:m[3]]

		value, ok := lookup(expr, scope)
		if !ok {
			r.logger.Debug("unresolved reference", "node_id", nodeID, "reference", expr)

			return ""
		}

		return models.CloneValue(value)
	}

	return referencePattern.ReplaceAllStringFunc(s, func(match string) string {
		expr := referencePattern.FindStringSubmatch(match)[1]

		value, ok := lookup(expr, scope)
		if !ok {
			r.logger.Debug("unresolved reference", "node_id", nodeID, "reference", expr)

			return ""
		}

		return stringify(value)
	})
}

func lookup(expr string, scope *Scope) (any, bool) {
	switch {
	case strings.HasPrefix(expr, varsPrefix):
		return lookupVariable(strings.TrimPrefix(expr, varsPrefix), scope)
	case strings.HasPrefix(expr, flowPrefix):
		return lookupFlow(strings.TrimPrefix(expr, flowPrefix), scope)
	}

	if value, ok := lookupVariable(expr, scope); ok {
		return value, true
	}

	if value, ok := lookupOutput(expr, scope); ok {
		return value, true
	}

	switch expr {
	case placeholderQuestion:
		return scope.Question, true
	case placeholderChatHistory:
		return FormatChatHistory(scope.ChatHistory), true
	case placeholderFileAttachment:
		return scope.FileAttachment, true
	}

	return nil, false
}

func lookupVariable(name string, scope *Scope) (any, bool) {
	if value, ok := scope.Overrides[name]; ok {
		return value, true
	}

	value, ok := scope.Variables[name]

	return value, ok
}

func lookupFlow(field string, scope *Scope) (any, bool) {
	if field == "input" {
		return scope.Question, true
	}

	if scope.Config == nil {
		return nil, false
	}

	switch field {
	case "chatId":
		return scope.Config.ChatID, true
	case "sessionId":
		return scope.Config.SessionID, true
	case "chatflowId":
		return scope.Config.FlowID, true
	case "messageId":
		return scope.Config.MessageID, true
	default:
		return nil, false
	}
}

// lookupOutput walks "nodeId.path.to.value". The "data.instance" segment
// designates the output itself.
func lookupOutput(expr string, scope *Scope) (any, bool) {
	nodeID, path, _ := strings.Cut(expr, ".")

	output, ok := scope.Outputs[nodeID]
	if !ok {
		return nil, false
	}

	path = strings.TrimPrefix(path, instancePath)
	path = strings.TrimPrefix(path, ".")

	if path == "" {
		return output, true
	}

	current := output

	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// FormatChatHistory renders history as alternating Human/Assistant lines.
func FormatChatHistory(history []models.HistoryMessage) string {
	lines := make([]string, 0, len(history))

	for _, msg := range history {
		prefix := "Human"
		if msg.Role == models.RoleAPI {
			prefix = "Assistant"
		}

		lines = append(lines, prefix+": "+msg.Content)
	}

	return strings.Join(lines, "\n")
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}

	return string(raw)
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
