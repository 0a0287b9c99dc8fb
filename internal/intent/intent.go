// Package intent classifies normalized message text into the bot command
// vocabulary and extracts relative/absolute date expressions from free text.
package intent

import (
	"regexp"
	"strings"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
)

var mentionToken = regexp.MustCompile(`@\d+`)

// Normalize strips mention tokens from the text and collapses whitespace,
// e.g. "@905335445983  help" -> "help".
func Normalize(body string) string {
	cleaned := mentionToken.ReplaceAllString(body, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// synonyms maps each accepted spelling to its command. Matching accepts the
// exact token or the token followed by trailing arguments.
var synonyms = []struct {
	token string
	cmd   domain.Command
}{
	{"start", domain.CommandStart},
	{"başla", domain.CommandStart},
	{"help", domain.CommandHelp},
	{"yardım", domain.CommandHelp},
	{"komut", domain.CommandHelp},
	{"menu", domain.CommandMenu},
	{"menü", domain.CommandMenu},
	{"today", domain.CommandToday},
	{"bugün", domain.CommandToday},
	{"bugun", domain.CommandToday},
	{"tomorrow", domain.CommandTomorrow},
	{"yarın", domain.CommandTomorrow},
	{"yarin", domain.CommandTomorrow},
	{"week", domain.CommandWeek},
	{"haftalık", domain.CommandWeek},
	{"haftalik", domain.CommandWeek},
	{"bu hafta", domain.CommandWeek},
}

// slashAliases are the legacy slash-prefixed spellings, accepted
// unconditionally for backward compatibility.
var slashAliases = []struct {
	prefix string
	cmd    domain.Command
}{
	{"/help", domain.CommandHelp},
	{"/menu", domain.CommandMenu},
	{"/today", domain.CommandToday},
	{"/tomorrow", domain.CommandTomorrow},
	{"/week", domain.CommandWeek},
}

// ParseCommand classifies text into a command, or CommandNone when nothing
// matches. Matching is case-insensitive; the first matching rule wins.
func ParseCommand(text string) domain.Command {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.CommandNone
	}
	lower := strings.ToLower(trimmed)

	for _, s := range synonyms {
		if lower == s.token || strings.HasPrefix(lower, s.token+" ") {
			return s.cmd
		}
	}
	for _, a := range slashAliases {
		if strings.HasPrefix(trimmed, a.prefix) {
			return a.cmd
		}
	}
	return domain.CommandNone
}

// IsUnknownCandidate reports whether unmatched text looks like an attempted
// command: a single token with no recognized meaning. The caller still has
// to confirm the bot was addressed before replying.
func IsUnknownCandidate(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed != "" && !strings.Contains(trimmed, " ") && ParseCommand(trimmed) == domain.CommandNone
}
