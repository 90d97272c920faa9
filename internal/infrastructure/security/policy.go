// Package security implements the allow/deny policy gate consulted by the
// execution mediator before any handler runs.
package security

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// Policy evaluates command intents against the configured action lists.
// A denied action is always rejected; when the allow list is non-empty,
// only listed actions proceed.
type Policy struct {
	deny  map[string]struct{}
	allow map[string]struct{}
}

// RulesFile is the YAML schema for an external policy override file.
type RulesFile struct {
	Rules struct {
		DenyActions  []string `yaml:"deny_actions"`
		AllowActions []string `yaml:"allow_actions"`
	} `yaml:"rules"`
}

// NewPolicy builds the gate from configuration. When settings.RulesFile names
// a readable YAML file its lists replace the inline ones.
func NewPolicy(settings domain.SecuritySettings) (*Policy, error) {
	deny := settings.DenyActions
	allow := settings.AllowActions

	if settings.RulesFile != "" {
		if data, err := os.ReadFile(settings.RulesFile); err == nil {
			var rules RulesFile
			if err := yaml.Unmarshal(data, &rules); err != nil {
				return nil, err
			}
			deny = rules.Rules.DenyActions
			allow = rules.Rules.AllowActions
		}
	}

	return &Policy{
		deny:  toSet(deny),
		allow: toSet(allow),
	}, nil
}

// Check implements ports.SecurityPolicy. Returns nil when the command may
// proceed; a POLICY_DENIED error otherwise.
func (p *Policy) Check(command domain.Command) error {
	action := strings.ToLower(command.Intent)

	if _, denied := p.deny[action]; denied {
		return domain.Errorf(domain.ErrPolicyDenied, "action %q is on the deny list", action)
	}
	if len(p.allow) > 0 {
		if _, allowed := p.allow[action]; !allowed {
			return domain.Errorf(domain.ErrPolicyDenied, "action %q is not on the allow list", action)
		}
	}
	return nil
}

func toSet(actions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(actions))
	for _, action := range actions {
		action = strings.ToLower(strings.TrimSpace(action))
		if action == "" {
			continue
		}
		set[action] = struct{}{}
	}
	return set
}

var _ ports.SecurityPolicy = (*Policy)(nil)
