package intent

import (
	"regexp"
	"strings"
)

var (
	greetingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(hi|hello|hey|good morning|good afternoon|good evening)\b`),
		regexp.MustCompile(`\b(how are you|nice to meet you)\b`),
	}

	// A bare "what" is confusion; "what is REST?" is a question.
	confusionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b((don't|dont|do not) (understand|get it)|confused|confusing|unclear|not sure what)\b`),
		regexp.MustCompile(`\b(what do you mean|i'm lost|i am lost|huh)\b`),
		regexp.MustCompile(`^(huh|what|eh)[?.!]*$`),
	}

	questionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\?`),
		regexp.MustCompile(`^(what|how|why|when|where|who|which)\b`),
		regexp.MustCompile(`\b(tell me|explain|can you|could you|would you)\b`),
	}

	techPattern = compileWords(techVocabulary, true)
)

// techVocabulary marks a question as being about the assessment topic.
var techVocabulary = []string{
	// domains and their common names
	"backend", "frontend", "data analytics", "machine learning", "devops",
	"cybersecurity", "data engineering", "algorithms", "algorithm", "dsa",
	"web development", "mobile", "ai", "ml",
	// general vocabulary
	"api", "database", "server", "code", "coding", "programming", "software",
	"development", "framework", "library", "data", "security", "network",
	"cloud", "deployment", "testing", "rest", "http", "sql", "git", "docker",
	"kubernetes", "html", "css", "javascript", "typescript", "python", "react",
	"linux", "encryption", "model", "pipeline", "query", "cache",
}

// Classify returns the conversational intent of text. Rules are checked in
// order and the first match wins: greeting, confusion, question marker,
// answer. A question is a clarification when it mentions a tech keyword or
// context mentions "assessment"; otherwise it is off-topic.
func Classify(text, context string) Intent {
	t := Normalize(text)

	if matchAny(t, greetingPatterns) {
		return IntentGreeting
	}
	if matchAny(t, confusionPatterns) {
		return IntentConfused
	}
	if matchAny(t, questionPatterns) {
		if IsTechRelated(t) || strings.Contains(strings.ToLower(context), "assessment") {
			return IntentClarificationQuestion
		}
		return IntentOffTopic
	}
	return IntentAnswer
}

// IsTechRelated reports whether text mentions a domain or general tech keyword.
func IsTechRelated(text string) bool {
	return techPattern.MatchString(Normalize(text))
}

func matchAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// compileWords builds one alternation matching any of words on word
// boundaries. With plurals set, single words also match a trailing "s".
func compileWords(words []string, plurals bool) *regexp.Regexp {
	alts := make([]string, len(words))
	for i, w := range words {
		alts[i] = regexp.QuoteMeta(w)
	}
	suffix := ""
	if plurals {
		suffix = `s?`
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)` + suffix + `\b`)
}
