// Package moderation masks listed words in chat bodies before they are
// displayed. It never changes the message log itself.
package moderation

import (
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator matches a word list against normalized text: case, leet
// substitutions and punctuation/spacing inside a word are ignored.
type Moderator struct {
	machine     *goahocorasick.Machine
	replacement rune
}

// folded is a normalized view of a text keeping, for every kept rune,
// its index in the original rune slice.
type folded struct {
	runes  []rune
	origin []int
}

func NewModerator(words []string, replacement rune) (Moderator, error) {
	var patterns [][]rune
	for _, word := range words {
		if pattern := fold([]rune(word)).runes; len(pattern) > 0 {
			patterns = append(patterns, pattern)
		}
	}
	if len(patterns) == 0 {
		return Moderator{replacement: replacement}, nil
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{machine: machine, replacement: replacement}, nil
}

// ParseWords splits a comma separated list, dropping blanks.
func ParseWords(list string) []string {
	var words []string
	for _, word := range strings.Split(list, ",") {
		if word = strings.TrimSpace(word); word != "" {
			words = append(words, word)
		}
	}
	return words
}

// Censor replaces every matched span of the original text and returns the
// matched words in order of appearance.
func (m Moderator) Censor(text string) (string, []string) {
	if m.machine == nil || text == "" {
		return text, nil
	}
	view := fold([]rune(text))
	if len(view.runes) == 0 {
		return text, nil
	}
	terms := m.machine.MultiPatternSearch(view.runes, false)
	if len(terms) == 0 {
		return text, nil
	}

	original := []rune(text)
	var words []string
	for _, term := range terms {
		end := term.Pos + len(term.Word)
		if term.Pos < 0 || end > len(view.origin) {
			continue
		}
		for i := view.origin[term.Pos]; i <= view.origin[end-1]; i++ {
			original[i] = m.replacement
		}
		words = append(words, string(term.Word))
	}
	return string(original), words
}

func fold(input []rune) folded {
	out := folded{runes: make([]rune, 0, len(input)), origin: make([]int, 0, len(input))}
	for i, r := range input {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out.runes = append(out.runes, unicode.ToLower(r))
		out.origin = append(out.origin, i)
	}
	return out
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
