// Package extract validates and normalizes free-text personal-info answers.
package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	minNameLen = 2
	maxNameLen = 20
)

// Longest fillers first so "hi there" wins over "hi".
var nameFillers = []string{
	"my name is",
	"hi there",
	"hello there",
	"hey there",
	"people call me",
	"you can call me",
	"call me",
	"this is",
	"i am",
	"i'm",
	"it's",
	"its",
	"im",
	"hello",
	"hey",
	"hi",
}

var locationFillers = []string{
	"i am located in",
	"i'm located in",
	"i am based in",
	"i'm based in",
	"i am from",
	"i'm from",
	"i live in",
	"i am in",
	"i'm in",
	"based in",
	"located in",
	"live in",
	"from",
}

// Name extracts a display name from text such as "Hi, I'm john".
func Name(text string) (string, bool) {
	s := stripFillers(cleanInput(text), nameFillers)
	if s == "" {
		return "", false
	}

	n := 0
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' {
			return "", false
		}
		n++
	}
	if n < minNameLen || n > maxNameLen {
		return "", false
	}
	return titleCase(s), true
}

// Location extracts a place name; letters, spaces and commas only.
func Location(text string) (string, bool) {
	s := stripFillers(cleanInput(text), locationFillers)
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ' || r == ',':
		default:
			return "", false
		}
	}
	if letters < 2 {
		return "", false
	}
	return titleCase(tidyCommas(s)), true
}

// Education accepts any background description of at least three characters.
func Education(text string) (string, bool) {
	s := collapseSpaces(strings.TrimSpace(text))
	if len([]rune(s)) < 3 {
		return "", false
	}
	return titleCase(s), true
}

// cleanInput trims, collapses whitespace and drops trailing punctuation.
func cleanInput(text string) string {
	s := collapseSpaces(strings.TrimSpace(text))
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// stripFillers removes leading conversational filler repeatedly, so
// "hi, my name is ana" reduces to "ana".
func stripFillers(s string, fillers []string) string {
	for {
		lower := strings.ToLower(s)
		stripped := false
		for _, f := range fillers {
			if !strings.HasPrefix(lower, f) {
				continue
			}
			rest := s[len(f):]
			if rest != "" {
				r := []rune(rest)[0]
				if unicode.IsLetter(r) || unicode.IsDigit(r) {
					continue
				}
			}
			s = strings.TrimLeftFunc(rest, func(r rune) bool {
				return r == ' ' || r == ',' || r == '!' || r == '.' || r == '-'
			})
			stripped = true
			break
		}
		if !stripped || s == "" {
			return s
		}
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func tidyCommas(s string) string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
