// Package scoring applies weighted scores, derives levels and builds the
// final recommendation report.
package scoring

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/ashureev/skillpath/internal/content"
	"github.com/ashureev/skillpath/internal/domain"
)

// DefaultQuestionCount is the size of a session's question set.
const DefaultQuestionCount = 6

// Level thresholds in percent.
const (
	AdvancedThreshold     = 80
	IntermediateThreshold = 50
)

// ScoreAnswer returns the score delta for an answer. Only positive answers
// score; negative answers are recorded but never subtract.
func ScoreAnswer(class domain.AnswerClass, weight int) int {
	if class == domain.AnswerPositive {
		return weight
	}
	return 0
}

// Percentage returns score as a percentage of maxScore.
func Percentage(score, maxScore int) float64 {
	if maxScore <= 0 {
		return 0
	}
	return float64(score) / float64(maxScore) * 100
}

// ComputeLevel maps a score to a level.
func ComputeLevel(score, maxScore int) domain.Level {
	switch p := Percentage(score, maxScore); {
	case p >= AdvancedThreshold:
		return domain.LevelAdvanced
	case p >= IntermediateThreshold:
		return domain.LevelIntermediate
	default:
		return domain.LevelBeginner
	}
}

// SelectQuestions draws n questions from bank without replacement. The
// order depends only on sessionID and domainName, so repeated selections
// for the same session are identical. Banks with at most n entries are
// returned whole in their original order.
func SelectQuestions(sessionID, domainName string, bank []domain.Question, n int) []domain.Question {
	if n <= 0 {
		n = DefaultQuestionCount
	}
	out := make([]domain.Question, len(bank))
	copy(out, bank)
	if len(out) <= n {
		return out
	}

	rng := rand.New(rand.NewPCG(seed(sessionID, domainName)))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:n]
}

func seed(sessionID, domainName string) (uint64, uint64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(domainName))
	s := h.Sum64()
	return s, s ^ 0x9e3779b97f4a7c15
}

// BuildRecommendations assembles the final report for a finished assessment.
func BuildRecommendations(d *content.Domain, score, maxScore int, log []domain.AnswerRecord) domain.Recommendations {
	level := ComputeLevel(score, maxScore)
	pct := Percentage(score, maxScore)
	desc := level.Description()

	areas := make([]domain.ImprovementArea, 0)
	for _, rec := range log {
		if rec.Class != domain.AnswerNegative {
			continue
		}
		areas = append(areas, domain.ImprovementArea{
			Question:    rec.Prompt,
			Answer:      rec.Answer,
			Explanation: rec.Explanation,
		})
	}

	topics, projects := d.Topics, d.Projects
	if len(topics) == 0 {
		topics = []string{d.Title + " Fundamentals", "Best Practices", "Project Development", "Testing", "Deployment"}
	}
	if len(projects) == 0 {
		projects = []string{"Basic " + d.Title + " Project", "Intermediate " + d.Title + " App", "Advanced " + d.Title + " System"}
	}

	return domain.Recommendations{
		Level:            level,
		Domain:           d.Title,
		Score:            fmt.Sprintf("%d/%d", score, maxScore),
		Percentage:       fmt.Sprintf("%.0f%%", pct),
		LevelDescription: desc,
		AreasToImprove:   areas,
		Topics:           topics,
		Projects:         projects,
		Docs:             d.Docs,
		Explanation: fmt.Sprintf("Based on your %s assessment, you scored %d out of %d questions correctly (%.0f%%). %s "+
			"Focus on the recommended topics and try building the suggested projects to enhance your skills.",
			d.Name, score, maxScore, pct, desc),
	}
}
