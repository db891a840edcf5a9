package assessment

import (
	"context"

	"github.com/ashureev/skillpath/internal/domain"
)

// Turn is the stage-independent answer to a free-form message.
type Turn struct {
	Reply           string                  `json:"reply"`
	NextPrompt      string                  `json:"next_prompt,omitempty"`
	Stage           domain.Stage            `json:"stage"`
	Progress        float64                 `json:"progress"`
	Completed       bool                    `json:"completed"`
	Outcome         Outcome                 `json:"outcome,omitempty"`
	Recommendations *domain.Recommendations `json:"recommendations,omitempty"`
	Summary         string                  `json:"summary,omitempty"`
	SwitchDomain    string                  `json:"switch_domain,omitempty"`
	Docs            []domain.DocLink        `json:"docs,omitempty"`
}

// Respond routes a message to personal info, the assessment or chat based
// on the session's current stage. Each target tolerates a stage that
// changed between the lookup and the call.
func (e *Engine) Respond(ctx context.Context, id, text string) (Turn, error) {
	st, err := e.Status(ctx, id)
	if err != nil {
		return Turn{}, err
	}

	switch {
	case st.Stage.IsPersonalInfo():
		r, err := e.SubmitPersonalInfo(ctx, id, text)
		if err != nil {
			return Turn{}, err
		}
		return turnFromReply(r), nil
	case st.Stage == domain.StageResult:
		c, err := e.Chat(ctx, id, text)
		if err != nil {
			return Turn{}, err
		}
		return Turn{
			Reply:        c.Reply,
			NextPrompt:   c.NextPrompt,
			Stage:        c.Stage,
			Completed:    c.Stage == domain.StageResult,
			Progress:     progressFor(c.Stage),
			SwitchDomain: c.SwitchDomain,
			Docs:         c.Docs,
		}, nil
	default:
		r, err := e.SubmitAnswer(ctx, id, text)
		if err != nil {
			return Turn{}, err
		}
		return turnFromReply(r), nil
	}
}

func turnFromReply(r Reply) Turn {
	return Turn{
		Reply:           r.Reply,
		NextPrompt:      r.NextPrompt,
		Stage:           r.Stage,
		Progress:        r.Progress,
		Completed:       r.Completed,
		Outcome:         r.Outcome,
		Recommendations: r.Recommendations,
		Summary:         r.Summary,
	}
}

// progressFor is 100 at the result stage and 0 right after a switch.
func progressFor(stage domain.Stage) float64 {
	if stage == domain.StageResult {
		return 100
	}
	return 0
}
