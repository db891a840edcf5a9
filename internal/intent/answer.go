package intent

import (
	"regexp"
	"strings"

	"github.com/ashureev/skillpath/internal/domain"
)

var (
	positiveWords = []string{
		"yes", "y", "yeah", "yep", "yup", "sure", "definitely", "absolutely",
		"of course", "correct", "right", "true", "indeed",
	}
	negativeWords = []string{
		"no", "nope", "nah", "not really", "never", "false", "incorrect",
		"wrong", "not at all", "haven't", "have not", "not familiar",
		"don't know", "dont know", "do not know",
		"not true", "not correct", "not right",
	}
	partialWords = []string{
		"somewhat", "kind of", "sort of", "a little", "a bit", "partially",
		"maybe", "sometimes", "occasionally",
	}

	// Negated positives are removed before the positive check. "not true"
	// and friends then match as negatives; "not sure" stays unclear.
	negatedPositive = regexp.MustCompile(`\bnot (sure|right|true|correct|definitely|absolutely)\b`)

	positivePattern = compileWords(positiveWords, false)
	negativePattern = compileWords(negativeWords, false)
	partialPattern  = compileWords(partialWords, false)
	digitPattern    = regexp.MustCompile(`[0-9]`)
)

// ClassifyAnswer classifies the content of an assessment answer. Classes are
// checked in order: positive, negative, partial, numeric; anything else is
// unclear. Words match whole, so "y" does not match inside "sorry".
func ClassifyAnswer(text string) domain.AnswerClass {
	t := Normalize(text)
	if t == "" {
		return domain.AnswerUnclear
	}

	if positivePattern.MatchString(strings.TrimSpace(negatedPositive.ReplaceAllString(t, " "))) {
		return domain.AnswerPositive
	}
	if negativePattern.MatchString(t) {
		return domain.AnswerNegative
	}
	if partialPattern.MatchString(t) {
		return domain.AnswerPartial
	}
	if digitPattern.MatchString(t) {
		return domain.AnswerNumeric
	}
	return domain.AnswerUnclear
}
