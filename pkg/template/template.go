// Package template renders Go templates over the inputs of a running node.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"json": func(v any) (string, error) {
		raw, err := json.Marshal(v)

		return string(raw), err
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// NodeContext builds the data a node template is rendered against.
// Templates reach it as {{ .input }}, {{ .inputs.name }} and {{ .flow.chat_id }}.
func NodeContext(input string, data *models.NodeData, opts *protocol.Options) map[string]any {
	ctx := map[string]any{
		"input":  input,
		"inputs": map[string]any{},
		"flow":   map[string]any{},
	}

	if data != nil {
		ctx["inputs"] = data.Inputs
		ctx["node"] = map[string]any{"id": data.ID, "name": data.Name}
	}

	if opts != nil {
		ctx["flow"] = map[string]any{
			"flow_id":    opts.FlowID,
			"chat_id":    opts.ChatID,
			"session_id": opts.SessionID,
			"message_id": opts.MessageID,
			"question":   opts.Question,
		}
	}

	return ctx
}

// RenderString renders templateStr and returns the raw text.
func RenderString(templateStr string, data any) (string, error) {
	tmpl, err := template.New("node").Funcs(funcs).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}

// Render renders templateStr and decodes the result as JSON, a number or a
// boolean when it looks like one.
func Render(templateStr string, data any) (any, error) {
	rendered, err := RenderString(templateStr, data)
	if err != nil {
		return nil, err
	}

	result := strings.TrimSpace(rendered)
	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err != nil {
			return nil, fmt.Errorf("failed to parse json '%s': %w", templateStr, err)
		}

		return jsonResult, nil
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}
