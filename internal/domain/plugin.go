package domain

// ParamSpec declares one entry in a handler's parameter schema.
type ParamSpec struct {
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required" json:"required"`
	Default  string `yaml:"default,omitempty" json:"default,omitempty"`
}

// PluginDescriptor declares a handler's identity and capabilities.
// Descriptors are registered once at startup in an explicit ordered table.
type PluginDescriptor struct {
	Name            string               `json:"name"`
	Category        TaskCategory         `json:"category"`
	Capabilities    []string             `json:"capabilities"`
	ParameterSchema map[string]ParamSpec `json:"parameter_schema,omitempty"`
}

// HasCapability reports whether the descriptor advertises the given action.
func (d PluginDescriptor) HasCapability(action string) bool {
	for _, c := range d.Capabilities {
		if c == action {
			return true
		}
	}
	return false
}

// Capabilities is the handler self-description exposed to external callers.
type Capabilities struct {
	Name       string               `json:"name"`
	Categories []TaskCategory       `json:"categories"`
	Actions    []string             `json:"actions"`
	Parameters map[string]ParamSpec `json:"parameters,omitempty"`
}
