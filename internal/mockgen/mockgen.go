// Package mockgen synthesizes structured prompts locally, without calling the
// upstream provider. It backs offline development and cost-free testing.
package mockgen

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MockAPIKey is the credential value that switches the service into mock mode.
const MockAPIKey = "MOCK"

// emptyScaffold is returned for prompts that are blank after trimming.
const emptyScaffold = "Role: subject-matter expert.\n" +
	"Task: Await further instructions.\n" +
	"Context: No request provided.\n" +
	"Reasoning:\n- Ask the user for a concrete objective.\n" +
	"Stop Conditions:\n- Stop until the user supplies a prompt."

type roleRule struct {
	role     string
	keywords []string
}

// roleTable is checked in order; the first rule with a matching keyword wins.
var roleTable = []roleRule{
	{role: "neuroscientist", keywords: []string{"neuro", "brain", "cortex"}},
	{role: "data scientist", keywords: []string{"data", "model", "analytics"}},
	{role: "software engineer", keywords: []string{"code", "bug", "script", "refactor"}},
	{role: "cybersecurity analyst", keywords: []string{"security", "threat", "breach", "malware"}},
	{role: "financial analyst", keywords: []string{"finance", "investment", "budget", "valuation"}},
	{role: "medical doctor", keywords: []string{"patient", "symptom", "diagnosis", "treatment"}},
}

var tokenRE = regexp.MustCompile(`[a-z0-9-]+`)

// Enabled reports whether mock mode is active: the flag must be exactly
// "true", or the API key must equal MockAPIKey.
func Enabled(flag, apiKey string) bool {
	return flag == "true" || apiKey == MockAPIKey
}

// Role infers an expert label for prompt.
func Role(prompt string) string {
	lower := cases.Lower(language.Und).String(prompt)
	for _, rule := range roleTable {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.role
			}
		}
	}
	noun := "subject"
	for _, tok := range tokenRE.FindAllString(lower, -1) {
		if len(tok) > 4 {
			noun = tok
			break
		}
	}
	return noun + " specialist"
}

// Build returns the five-section scaffold for prompt. mode is noted in the
// Context section when non-empty.
func Build(prompt, mode string) string {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return emptyScaffold
	}

	modeNote := ""
	if mode != "" {
		modeNote = "Mode: " + mode + ". "
	}

	return strings.Join([]string{
		"Role: " + Role(trimmed) + ".",
		"Task: " + trimmed,
		"Context:\n- " + modeNote + "This scaffold was generated from the raw prompt while running in local mock mode.",
		"Reasoning:\n- Highlight missing details before proceeding.\n- Outline the major steps required to satisfy the request.\n- Note any assumptions that must be validated.",
		"Stop Conditions:\n- Pause if critical information is missing.\n- Finish once all deliverables from the task statement are complete.",
	}, "\n")
}
