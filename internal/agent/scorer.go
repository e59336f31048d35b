package agent

import "strings"

// scoringRule scores one agent: one point per keyword found as a substring of
// the task text, plus a flat bonus when any strong-signal phrase appears.
// Adding an agent means adding a table entry, nothing else.
type scoringRule struct {
	agentID  string
	keywords []string
	bonuses  []string
	bonus    int
}

// rules is ordered the same way as the directory; ties resolve to the first
// max in this order.
var rules = []scoringRule{
	{
		agentID: IDFrontend,
		keywords: []string{
			"ui", "interface", "frontend", "react", "component", "dashboard",
			"form", "input", "button", "css", "styling", "responsive",
			"javascript", "typescript", "jsx", "html", "dom", "browser",
			"client-side", "user experience", "ux", "design",
		},
		bonuses: []string{"component", "dashboard", "frontend", "react"},
		bonus:   3,
	},
	{
		agentID: IDBackend,
		keywords: []string{
			"api", "server", "backend", "database", "sql", "crud",
			"endpoint", "route", "middleware", "authentication", "auth",
			"validation", "schema", "model", "controller", "service",
			"fastapi", "flask", "django", "express", "node",
		},
		bonuses: []string{"worker api", "server", "fastapi", "sqlite"},
		bonus:   3,
	},
	{
		agentID: IDIntegrations,
		keywords: []string{
			"queue", "message", "webhook", "integration", "third-party",
			"external api", "sync", "async", "batch", "worker",
			"job", "task queue", "redis", "rabbitmq", "kafka",
			"email", "notification", "sms", "payment", "stripe",
		},
		bonuses: []string{"integration", "webhook", "external", "queue"},
		bonus:   3,
	},
	{
		agentID: IDArchitecture,
		keywords: []string{
			"architecture", "design pattern", "structure", "organization",
			"framework", "system design", "scalability", "performance",
			"optimization", "refactoring", "code review", "best practices",
			"documentation", "planning", "strategy", "security",
		},
		bonuses: []string{"documentation", "architecture", "design", "planning"},
		bonus:   3,
	},
}

// Assign picks the agent best suited for a task. Pure and deterministic:
// repeated calls with the same inputs return the same agent. Keyword matching
// is substring matching over the case-folded title+description blob, not
// word-boundary matching.
func (d *Directory) Assign(title, description, epicID string) string {
	text := strings.ToLower(title) + " " + strings.ToLower(description)

	bestID := ""
	bestScore := 0
	for _, rule := range rules {
		score := 0
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		for _, phrase := range rule.bonuses {
			if strings.Contains(text, phrase) {
				score += rule.bonus
				break
			}
		}
		if bestID == "" || score > bestScore {
			bestID = rule.agentID
			bestScore = score
		}
	}

	if bestScore == 0 {
		return fallbackByEpic(epicID)
	}
	return bestID
}

// fallbackByEpic handles the zero-score case by inspecting the epic id, in a
// fixed priority order, defaulting to the backend specialist.
func fallbackByEpic(epicID string) string {
	id := strings.ToLower(epicID)
	switch {
	case strings.Contains(id, "ui") || strings.Contains(id, "frontend"):
		return IDFrontend
	case strings.Contains(id, "integration") || strings.Contains(id, "queue"):
		return IDIntegrations
	case strings.Contains(id, "docs") || strings.Contains(id, "architecture"):
		return IDArchitecture
	default:
		return IDBackend
	}
}

// BalanceWorkload is the extension point for workload-aware assignment. It
// currently ignores workload and returns the first candidate.
// TODO: consult open assignment counts once reassignment exists.
func (d *Directory) BalanceWorkload(candidates []string) string {
	if len(candidates) == 0 {
		return IDBackend
	}
	return candidates[0]
}
