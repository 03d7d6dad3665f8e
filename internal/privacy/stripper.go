// Package privacy scrubs sensitive material from screen descriptions before
// they are persisted. Screenshots themselves never reach the database; this
// guards against the vision model transcribing secrets it saw on screen.
package privacy

import (
	"regexp"
	"strings"
)

var (
	// apiKeyRegex matches long opaque tokens: API keys, bearer tokens, hex
	// digests. Minimum length keeps ordinary words out.
	apiKeyRegex = regexp.MustCompile(`\b(?:sk-|pk-|ghp_|gho_|xox[bp]-|AKIA)[A-Za-z0-9_\-]{10,}\b|\b[A-Fa-f0-9]{32,}\b`)

	// emailRegex matches email addresses.
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	// cardRegex matches credit-card style digit runs, with or without
	// separators.
	cardRegex = regexp.MustCompile(`\b(?:\d[ \-]?){13,19}\b`)

	// credentialLineRegex matches "password: hunter2" style fragments the
	// model sometimes transcribes verbatim.
	credentialLineRegex = regexp.MustCompile(`(?i)\b(password|passphrase|secret|api[ _-]?key|token)\s*[:=]\s*\S+`)
)

const redacted = "[redacted]"

// RedactSecrets replaces secret-like tokens in text with a placeholder.
func RedactSecrets(text string) string {
	text = credentialLineRegex.ReplaceAllString(text, "$1: "+redacted)
	text = apiKeyRegex.ReplaceAllString(text, redacted)
	text = cardRegex.ReplaceAllString(text, redacted)
	return text
}

// RedactEmails replaces email addresses in text with a placeholder.
func RedactEmails(text string) string {
	return emailRegex.ReplaceAllString(text, redacted)
}

// ContainsSecrets reports whether text holds anything RedactSecrets would
// remove.
func ContainsSecrets(text string) bool {
	return credentialLineRegex.MatchString(text) ||
		apiKeyRegex.MatchString(text) ||
		cardRegex.MatchString(text)
}

// Clean scrubs a description for storage. This is the single entry point to
// call before any screen description is written to the database.
func Clean(text string) string {
	text = RedactSecrets(text)
	text = RedactEmails(text)
	return strings.TrimSpace(text)
}
