// Package instruction turns HTML-bearing direction steps into text suitable for speech.
package instruction

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultAbbreviations are the address abbreviations expanded when none are configured.
var DefaultAbbreviations = map[string]string{
	"Stn": "Station",
	"Rd":  "Road",
	"Ave": "Avenue",
	"Hwy": "Highway",
	"Pde": "Parade",
}

// sentenceBreak is spoken as a full stop. The surrounding spaces keep it a separate token.
const sentenceBreak = " . "

// whitespace also matches the non-breaking spaces common in direction markup.
var whitespace = regexp.MustCompile(`[\s\x{00a0}]+`)

// blockElements end a spoken sentence when they open or close.
var blockElements = map[atom.Atom]bool{
	atom.Div:        true,
	atom.P:          true,
	atom.Br:         true,
	atom.Li:         true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Tr:         true,
	atom.Table:      true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Blockquote: true,
	atom.Section:    true,
}

// Normalizer strips markup and expands abbreviations.
// The zero value performs no abbreviation expansion.
type Normalizer struct {
	abbreviations *regexp.Regexp
	expansions    map[string]string
}

// New creates a Normalizer expanding the given abbreviations as whole words.
func New(abbreviations map[string]string) *Normalizer {
	n := &Normalizer{expansions: make(map[string]string, len(abbreviations))}
	if len(abbreviations) == 0 {
		return n
	}

	keys := make([]string, 0, len(abbreviations))
	for k, v := range abbreviations {
		if k == "" {
			continue
		}
		n.expansions[k] = v
		keys = append(keys, regexp.QuoteMeta(k))
	}
	if len(keys) == 0 {
		return n
	}
	// Longest first so overlapping abbreviations prefer the longer match.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	n.abbreviations = regexp.MustCompile(`(?:` + strings.Join(keys, "|") + `)`)
	return n
}

// Normalize converts an HTML instruction into plain spoken text.
//
// Tags are removed. Each block-level element boundary, and the end of the text,
// becomes a spoken full stop unless the preceding text already ends in terminal
// punctuation. Runs of whitespace collapse to single spaces.
func (n *Normalizer) Normalize(instruction string) string {
	var b strings.Builder

	z := html.NewTokenizer(strings.NewReader(instruction))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; either way we emit what we have.
			breakSentence(&b)
			return n.finish(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockElements[atom.Lookup(name)] {
				breakSentence(&b)
			}
		}
	}
}

func (n *Normalizer) finish(s string) string {
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if n.abbreviations == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range n.abbreviations.FindAllStringIndex(s, -1) {
		start, end := loc[0], loc[1]
		if !isBoundary(s[:start], true) || !isBoundary(s[end:], false) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(n.expansions[s[start:end]])
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

// isBoundary reports whether the rune adjacent to a match, the last rune of before
// or the first rune of after, does not continue a word. Letters of any script count.
func isBoundary(s string, before bool) bool {
	if s == "" {
		return true
	}
	var r rune
	if before {
		r, _ = utf8.DecodeLastRuneInString(s)
	} else {
		r, _ = utf8.DecodeRuneInString(s)
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

// breakSentence appends a full stop unless there is nothing to end
// or the text already ends a sentence.
func breakSentence(b *strings.Builder) {
	text := strings.TrimRightFunc(b.String(), unicode.IsSpace)
	if text == "" {
		return
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		b.WriteByte(' ')
		return
	}
	b.WriteString(sentenceBreak)
}
