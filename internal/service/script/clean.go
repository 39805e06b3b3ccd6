// Package script prepares raw story text for narration: markdown cleanup,
// abbreviation expansion and optional word obfuscation. The cleaned text is
// the authoritative word sequence the timing engine aligns against.
package script

import (
	"regexp"
	"sort"
	"strings"
)

var (
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	strikeRe     = regexp.MustCompile(`~~(.*?)~~`)
	codeRe       = regexp.MustCompile("`(.*?)`")
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// abbreviations maps chat shorthand to the phrase the narrator actually
// speaks. Pronounceable acronyms map to themselves so mixed-case uses are
// normalized without being spelled out.
var abbreviations = map[string]string{
	"IDK":    "I don't know",
	"BTW":    "by the way",
	"LOL":    "LOL",
	"BRB":    "BRB",
	"OMG":    "OMG",
	"ASAP":   "as soon as possible",
	"FAQ":    "frequently asked questions",
	"FYI":    "for your information",
	"NVM":    "never mind",
	"TMI":    "too much information",
	"IMO":    "in my opinion",
	"IMHO":   "in my humble opinion",
	"TLDR":   "TLDR",
	"AFAIK":  "as far as I know",
	"FOMO":   "FOMO",
	"IRL":    "IRL",
	"ROFL":   "ROFL",
	"SMH":    "shaking my head",
	"TBD":    "to be determined",
	"AKA":    "also known as",
	"DIY":    "do it yourself",
	"ETA":    "estimated time of arrival",
	"EOD":    "end of day",
	"COB":    "close of business",
	"OT":     "off topic",
	"WFH":    "work from home",
	"TTYL":   "talk to you later",
	"G2G":    "got to go",
	"IDC":    "I don't care",
	"THX":    "thanks",
	"NP":     "no problem",
	"JK":     "just kidding",
	"LMK":    "let me know",
	"P.S.":   "postscript",
	"RSVP":   "RSVP",
	"E.G.":   "for example",
	"I.E.":   "that is",
	"VS.":    "versus",
	"C.V.":   "C.V.",
	"F.Y.I.": "for your information",
	"S.M.H.": "shaking my head",
	"AITB":   "Am I the Butthole",
	"AITA":   "Am I the Asshole",
	"SAHM":   "Stay at Home Mom",
	"SAHD":   "Stay at home Dad",
}

type expansion struct {
	re      *regexp.Regexp
	replace string
}

// expansions holds one compiled pattern per abbreviation, longest key
// first so dotted forms win over their fragments. Keys ending in a word
// character take a trailing \b; a boundary can never follow a period, so
// dotted keys end at their literal dot instead.
var expansions = buildExpansions()

func buildExpansions() []expansion {
	keys := make([]string, 0, len(abbreviations))
	for k := range abbreviations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	out := make([]expansion, 0, len(keys))
	for _, k := range keys {
		pattern := `(?i)\b` + regexp.QuoteMeta(k)
		if isWordChar(k[len(k)-1]) {
			pattern += `\b`
		}
		out = append(out, expansion{
			re:      regexp.MustCompile(pattern),
			replace: abbreviations[k],
		})
	}
	return out
}

func isWordChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// Clean strips markdown emphasis, collapses whitespace and expands chat
// abbreviations into speakable phrases. The result is what the narrator
// reads, so every downstream word count derives from it.
func Clean(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = strikeRe.ReplaceAllString(text, "$1")
	text = codeRe.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	for _, e := range expansions {
		text = e.re.ReplaceAllString(text, e.replace)
	}
	return text
}

// Words returns the authoritative word sequence of a raw story text.
func Words(text string) []string {
	return strings.Fields(Clean(text))
}
