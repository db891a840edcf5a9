package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ashureev/skillpath/internal/assessment"
	"github.com/ashureev/skillpath/internal/content"
	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/store"
)

func TestRunScriptedAssessment(t *testing.T) {
	t.Parallel()

	eng := assessment.New(store.NewMemory(), content.NewStatic(content.MustDefault()), assessment.Config{})
	script := strings.Join([]string{
		"John", "Boston", "Computer Science", "machine learning",
		"yes", "no", "yes", "no", "yes", "no",
		"thanks", "quit",
	}, "\n")

	var out bytes.Buffer
	id, err := New(eng, strings.NewReader(script), &out, Options{Plain: true}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	st, err := eng.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Stage != domain.StageResult || st.Domain != "machine learning" {
		t.Fatalf("unexpected status: %+v", st)
	}

	text := out.String()
	for _, want := range []string{"Nice to meet you, John!", "# Machine Learning assessment:", "## Areas to improve", "Bye!"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestReportMarkdown(t *testing.T) {
	t.Parallel()

	md := ReportMarkdown(assessment.Turn{
		Summary: "Solid start.",
		Recommendations: &domain.Recommendations{
			Level:    domain.LevelIntermediate,
			Domain:   "devops",
			Score:    "4/6",
			Topics:   []string{"CI/CD"},
			Docs:     []domain.DocLink{{Title: "Docker Documentation", URL: "https://docs.docker.com/"}},
			Projects: nil,
		},
	})

	for _, want := range []string{"# Devops assessment: Intermediate", "**Score:** 4/6", "Solid start.", "## Topics", "- [Docker Documentation](https://docs.docker.com/)"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Projects") {
		t.Error("empty sections must be omitted")
	}
}
