package parser

import (
	"regexp"

	"github.com/doeshing/opsgpt/internal/domain"
)

// PatternEntry binds a regular expression to an intent and category. Named
// capture groups become command parameters.
type PatternEntry struct {
	Pattern  string
	Intent   string
	Category domain.TaskCategory
}

type compiledEntry struct {
	re       *regexp.Regexp
	intent   string
	category domain.TaskCategory
}

// DefaultPatterns returns the built-in intent table. Order matters: entries
// are evaluated in sequence and the first match wins.
func DefaultPatterns() []PatternEntry {
	return []PatternEntry{
		// Troubleshooting
		{`show.*logs.*from\s+(?:the\s+)?(?P<service>\w+)`, "show_logs", domain.CategoryTroubleshooting},
		{`restart\s+(?:the\s+)?(?P<service>\w+)`, "restart_service", domain.CategoryTroubleshooting},
		{`health\s*check\s+(?:for\s+|on\s+)?(?P<service>\w+)`, "health_check", domain.CategoryTroubleshooting},

		// CI/CD
		{`trigger\s+(?:the\s+)?(?P<pipeline>\w+)\s+pipeline`, "trigger_pipeline", domain.CategoryCICD},
		{`rollback\s+(?:the\s+)?(?P<service>\w+)`, "rollback_deployment", domain.CategoryCICD},

		// Cloud provisioning
		{`create.*?(?P<resource_type>ec2|vm|instance)`, "create_instance", domain.CategoryCloudProvisioning},

		// Cost analysis
		{`show.*cost\s+(?:for\s+|of\s+)?(?P<service>\w+)`, "analyze_cost", domain.CategoryCostUsage},

		// Security
		{`check.*?(?P<security_type>ports|cve|vulnerabilities)`, "security_scan", domain.CategorySecurityCompliance},

		// Monitoring
		{`show\s+metrics\s+(?:for\s+)?(?P<service>\w+)`, "show_metrics", domain.CategoryMonitoringAlerts},
		{`check.*alerts`, "check_alerts", domain.CategoryMonitoringAlerts},
	}
}

func compilePatterns(entries []PatternEntry) ([]compiledEntry, error) {
	compiled := make([]compiledEntry, 0, len(entries))
	for _, entry := range entries {
		re, err := regexp.Compile(`(?i)` + entry.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledEntry{
			re:       re,
			intent:   entry.Intent,
			category: entry.Category,
		})
	}
	return compiled, nil
}

func captureParams(re *regexp.Regexp, match []string) map[string]string {
	params := map[string]string{}
	for i, name := range re.SubexpNames() {
		if name == "" || i >= len(match) || match[i] == "" {
			continue
		}
		params[name] = match[i]
	}
	return params
}
