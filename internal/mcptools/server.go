package mcptools

import (
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewServer creates the MCP server with every assessment tool registered.
func NewServer(eng Assessor) *server.MCPServer {
	s := server.NewMCPServer(
		"skillpath",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	start := NewStartTool(eng)
	s.AddTool(start.Definition(), start.Handle)

	info := NewPersonalInfoTool(eng)
	s.AddTool(info.Definition(), info.Handle)

	answer := NewAnswerTool(eng)
	s.AddTool(answer.Definition(), answer.Handle)

	chat := NewChatTool(eng)
	s.AddTool(chat.Definition(), chat.Handle)

	status := NewStatusTool(eng)
	s.AddTool(status.Definition(), status.Handle)

	return s
}

const instructions = `skillpath runs a short tech-skills interview.
Call start_assessment, relay each question to the user, and pass their reply back unchanged:
submit_personal_info for name, location and education, then submit_answer for the domain
choice and every yes/no question. After completion use chat for follow-ups, and get_status
at any time to see progress.`
