// Package resolve determines which character owns a log file's events.
// Welcome banners are the preferred name source; without one the resolver
// falls back to the most frequent death-event subject, then to a caller
// supplied hint such as the log's parent directory name.
package resolve

import (
	"strings"
	"unicode"

	"github.com/pyrrhio/annalist/internal/parse"
)

// Unknown is the name assigned when no source can identify the character.
const Unknown = "Unknown"

// Name resolves the owning character for a stream of events. The hint is
// typically the parent directory name and may be empty.
func Name(events []parse.Event, hint string) string {
	if name, ok := FromEvents(events); ok {
		return name
	}
	if name, ok := fallenMajority(events); ok {
		return name
	}
	if hint != "" {
		return Titlecase(hint)
	}
	return Unknown
}

// FromEvents returns the titlecased name from the first welcome or
// reconnect banner in the event stream.
func FromEvents(events []parse.Event) (string, bool) {
	for _, ev := range events {
		if ev.Kind == parse.KindWelcome || ev.Kind == parse.KindReconnect {
			return Titlecase(ev.Name), true
		}
	}
	return "", false
}

// fallenMajority picks the most frequent subject of death events. Logs
// record deaths of bystanders too, but the file's owner dies in their own
// log more often than anyone else does.
func fallenMajority(events []parse.Event) (string, bool) {
	counts := make(map[string]int)
	for _, ev := range events {
		if ev.Kind == parse.KindFallen && ev.Name != "" {
			counts[Titlecase(ev.Name)]++
		}
	}
	best, bestCount := "", 0
	for name, n := range counts {
		if n > bestCount || (n == bestCount && name < best) {
			best, bestCount = name, n
		}
	}
	return best, bestCount > 0
}

// Titlecase capitalizes the first letter of each word and lowercases the
// rest, preserving Roman numerals ("Pog Mahone II" stays "II").
func Titlecase(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		if isRomanNumeral(word) {
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func isRomanNumeral(word string) bool {
	if word == "" {
		return false
	}
	for _, c := range word {
		switch c {
		case 'I', 'V', 'X', 'L', 'C', 'D', 'M':
		default:
			return false
		}
	}
	return true
}
