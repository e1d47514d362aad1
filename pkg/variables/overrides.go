package variables

import (
	"github.com/dukex/updlflow/pkg/models"
)

// VarsKey is the override entry holding variable overrides.
const VarsKey = "vars"

// OverrideVars returns the request supplied variable overrides when the flow allows overrides.
func OverrideVars(values map[string]any, settings models.OverrideSettings) map[string]any {
	if !settings.Enabled {
		return nil
	}

	vars, ok := values[VarsKey].(map[string]any)
	if !ok {
		return nil
	}

	return vars
}

// ApplyOverrides returns a copy of data with request overrides merged into its inputs.
// Only inputs the node already carries or declares are replaced. A map value whose
// keys are all node ids of the flow applies only to the node with a matching key.
func ApplyOverrides(data *models.NodeData, values map[string]any, settings models.OverrideSettings, nodeIDs []string) *models.NodeData {
	out := data.Clone()
	if out == nil || !settings.Enabled || len(values) == 0 {
		return out
	}

	known := make(map[string]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		known[id] = struct{}{}
	}

	if out.Inputs == nil {
		out.Inputs = make(map[string]any)
	}

	for name, value := range values {
		if name == VarsKey || !settings.Allows(name) || !declares(out, name) {
			continue
		}

		if targeted, ok := value.(map[string]any); ok && keyedByNode(targeted, known) {
			perNode, found := targeted[out.ID]
			if !found {
				continue
			}

			value = perNode
		}

		out.Inputs[name] = models.CloneValue(value)
	}

	return out
}

func declares(data *models.NodeData, name string) bool {
	if _, ok := data.Inputs[name]; ok {
		return true
	}

	_, ok := data.Param(name)

	return ok
}

func keyedByNode(m map[string]any, known map[string]struct{}) bool {
	if len(m) == 0 || len(known) == 0 {
		return false
	}

	for key := range m {
		if _, ok := known[key]; !ok {
			return false
		}
	}

	return true
}
