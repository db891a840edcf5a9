// Package mcptools exposes the assessment as MCP tools so an AI client can
// run an interview on the user's behalf.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/skillpath/internal/assessment"
	"github.com/ashureev/skillpath/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// Assessor is the engine surface the tools use.
type Assessor interface {
	Start(ctx context.Context) (assessment.StartResult, error)
	SubmitPersonalInfo(ctx context.Context, id, text string) (assessment.Reply, error)
	SubmitProfile(ctx context.Context, id string, p assessment.Profile) (assessment.Reply, error)
	SubmitAnswer(ctx context.Context, id, text string) (assessment.Reply, error)
	Chat(ctx context.Context, id, text string) (assessment.ChatReply, error)
	Status(ctx context.Context, id string) (assessment.Status, error)
}

// StartTool handles the start_assessment MCP tool.
type StartTool struct {
	eng Assessor
}

// NewStartTool creates a StartTool.
func NewStartTool(eng Assessor) *StartTool {
	return &StartTool{eng: eng}
}

// Definition returns the MCP tool definition for start_assessment.
func (t *StartTool) Definition() mcp.Tool {
	return mcp.NewTool("start_assessment",
		mcp.WithDescription(
			"Start a new skills assessment. Returns a session_id that every other tool needs, "+
				"plus the greeting and the first question to relay to the user.",
		),
	)
}

// Handle processes the start_assessment tool call.
func (t *StartTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := t.eng.Start(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start assessment: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "session_id: %s\nstage: %s\n\n", res.SessionID, res.Stage)
	b.WriteString(res.Message)
	b.WriteString("\n\n")
	b.WriteString(res.NextPrompt)
	return mcp.NewToolResultText(b.String()), nil
}

// PersonalInfoTool handles the submit_personal_info MCP tool.
type PersonalInfoTool struct {
	eng Assessor
}

// NewPersonalInfoTool creates a PersonalInfoTool.
func NewPersonalInfoTool(eng Assessor) *PersonalInfoTool {
	return &PersonalInfoTool{eng: eng}
}

// Definition returns the MCP tool definition for submit_personal_info.
func (t *PersonalInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_personal_info",
		mcp.WithDescription(
			"Answer the current personal-information question (name, then location, then education) "+
				"with 'text', or submit several fields at once with 'name', 'location' and 'education'.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by start_assessment"),
		),
		mcp.WithString("text",
			mcp.Description("The user's answer to the current question"),
		),
		mcp.WithString("name", mcp.Description("User's name")),
		mcp.WithString("location", mcp.Description("User's location")),
		mcp.WithString("education", mcp.Description("User's educational background")),
	)
}

// Handle processes the submit_personal_info tool call.
func (t *PersonalInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	var (
		reply assessment.Reply
		err   error
	)
	if text := req.GetString("text", ""); text != "" {
		reply, err = t.eng.SubmitPersonalInfo(ctx, id, text)
	} else {
		p := assessment.Profile{
			Name:      req.GetString("name", ""),
			Location:  req.GetString("location", ""),
			Education: req.GetString("education", ""),
		}
		if p == (assessment.Profile{}) {
			return mcp.NewToolResultError("provide 'text' or at least one of 'name', 'location', 'education'"), nil
		}
		reply, err = t.eng.SubmitProfile(ctx, id, p)
	}
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatReply(reply)), nil
}

// AnswerTool handles the submit_answer MCP tool.
type AnswerTool struct {
	eng Assessor
}

// NewAnswerTool creates an AnswerTool.
func NewAnswerTool(eng Assessor) *AnswerTool {
	return &AnswerTool{eng: eng}
}

// Definition returns the MCP tool definition for submit_answer.
func (t *AnswerTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_answer",
		mcp.WithDescription(
			"Submit the user's domain choice or their answer to the current yes/no assessment question. "+
				"Relay the user's words as-is; questions and confusion are handled without advancing.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by start_assessment"),
		),
		mcp.WithString("answer",
			mcp.Required(),
			mcp.Description("The user's reply"),
		),
	)
}

// Handle processes the submit_answer tool call.
func (t *AnswerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	answer := req.GetString("answer", "")
	if answer == "" {
		return mcp.NewToolResultError("'answer' is required"), nil
	}

	reply, err := t.eng.SubmitAnswer(ctx, id, answer)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatReply(reply)), nil
}

// ChatTool handles the chat MCP tool.
type ChatTool struct {
	eng Assessor
}

// NewChatTool creates a ChatTool.
func NewChatTool(eng Assessor) *ChatTool {
	return &ChatTool{eng: eng}
}

// Definition returns the MCP tool definition for chat.
func (t *ChatTool) Definition() mcp.Tool {
	return mcp.NewTool("chat",
		mcp.WithDescription(
			"Talk about the results once the assessment is complete: improvement tips, documentation, "+
				"or switching to another domain (confirm with 'yes').",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by start_assessment"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's message"),
		),
	)
}

// Handle processes the chat tool call.
func (t *ChatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	msg := req.GetString("message", "")
	if msg == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}

	reply, err := t.eng.Chat(ctx, id, msg)
	if err != nil {
		return toolError(err), nil
	}

	var b strings.Builder
	b.WriteString(reply.Reply)
	writeDocs(&b, reply.Docs)
	if reply.SwitchDomain != "" {
		fmt.Fprintf(&b, "\n\nswitch_offer: %s", reply.SwitchDomain)
	}
	if reply.NextPrompt != "" {
		fmt.Fprintf(&b, "\n\n%s", reply.NextPrompt)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// StatusTool handles the get_status MCP tool.
type StatusTool struct {
	eng Assessor
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(eng Assessor) *StatusTool {
	return &StatusTool{eng: eng}
}

// Definition returns the MCP tool definition for get_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("get_status",
		mcp.WithDescription("Get the stage, progress, score and domain of an assessment session as JSON."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by start_assessment"),
		),
	)
}

// Handle processes the get_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	st, err := t.eng.Status(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return mcp.NewToolResultError("session not found: call start_assessment first")
	}
	return mcp.NewToolResultError(fmt.Sprintf("assessment failed: %v", err))
}

func formatReply(r assessment.Reply) string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage: %s\noutcome: %s\nprogress: %.0f%%\n", r.Stage, r.Outcome, r.Progress)
	if r.TotalQuestions > 0 && !r.Completed {
		fmt.Fprintf(&b, "question: %d/%d\n", r.QuestionNumber, r.TotalQuestions)
	}
	if r.Reply != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Reply)
	}
	if r.NextPrompt != "" {
		fmt.Fprintf(&b, "\n%s\n", r.NextPrompt)
	}
	if rec := r.Recommendations; rec != nil {
		fmt.Fprintf(&b, "\nLevel: %s (score %s)\n%s\n", rec.Level, rec.Score, rec.LevelDescription)
		if r.Summary != "" {
			fmt.Fprintf(&b, "\n%s\n", r.Summary)
		}
		for _, area := range rec.AreasToImprove {
			fmt.Fprintf(&b, "- %s: %s\n", area.Question, area.Explanation)
		}
		writeDocs(&b, rec.Docs)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeDocs(b *strings.Builder, docs []domain.DocLink) {
	if len(docs) == 0 {
		return
	}
	b.WriteString("\n\nDocumentation:")
	for _, d := range docs {
		fmt.Fprintf(b, "\n- %s: %s", d.Title, d.URL)
	}
}
