// Package mentions resolves @Display Name references in message text
// against a project roster. The same literal-substring matching runs
// client-side for suggestion previews and server-side for the
// authoritative record, so the two can never disagree. Matching
// tolerates false negatives (unusual name formats) over false
// positives: a missed mention still delivers the message, a spurious
// one spams notifications.
package mentions

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"chatter-server/internal/domain/chatter"
)

// Resolve returns the roster users whose "@Display Name" appears in
// text, ordered by first occurrence and deduplicated by user id.
func Resolve(text string, roster []chatter.RosterUser) []chatter.Mention {
	if text == "" || len(roster) == 0 {
		return nil
	}

	type hit struct {
		mention chatter.Mention
		pos     int
	}

	lowered := strings.ToLower(text)
	seen := make(map[string]struct{}, len(roster))
	hits := make([]hit, 0, 4)

	for _, member := range roster {
		name := strings.TrimSpace(member.DisplayName)
		if name == "" {
			continue
		}
		pos := indexOfMention(lowered, strings.ToLower(name))
		if pos < 0 {
			continue
		}
		key := member.UserID.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		hits = append(hits, hit{
			mention: chatter.Mention{UserID: member.UserID, DisplayName: member.DisplayName},
			pos:     pos,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	resolved := make([]chatter.Mention, len(hits))
	for i, h := range hits {
		resolved[i] = h.mention
	}
	return resolved
}

// indexOfMention finds "@"+name in text with a boundary check after the
// name, so "@Bobby" never resolves roster user "Bob". Both arguments
// must already be lowercased.
func indexOfMention(text, name string) int {
	needle := "@" + name
	from := 0
	for {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			return -1
		}
		at := from + i
		end := at + len(needle)
		if end >= len(text) {
			return at
		}
		next, _ := utf8.DecodeRuneInString(text[end:])
		if !unicode.IsLetter(next) && !unicode.IsDigit(next) {
			return at
		}
		from = end
	}
}
