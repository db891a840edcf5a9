package textgen

import (
	"fmt"
	"strings"

	"github.com/ashureev/skillpath/internal/domain"
)

const rephrasePrompt = `STRICT INSTRUCTIONS:
- You are rephrasing a technical assessment question
- Keep the EXACT same technical meaning
- Make it more conversational but professional
- Do NOT change the question type (yes/no remains yes/no)
- Do NOT add new concepts or requirements
- Do NOT use emojis
- Return ONLY the rephrased question, nothing else

Domain: %s
Original question: %s

Rephrased question:`

const acknowledgePrompt = `STRICT INSTRUCTIONS:
- You are acknowledging a user's answer in a tech assessment
- Provide a brief, encouraging acknowledgment (1 sentence max)
- Do NOT ask new questions
- Do NOT change the conversation flow
- Do NOT provide technical explanations
- Keep it professional and supportive
- Do NOT use emojis

User's answer: %s
Answer type: %s

Brief acknowledgment:`

const explainPrompt = `STRICT INSTRUCTIONS:
- User asked a clarification question during tech assessment
- Provide a brief, helpful answer (2-3 sentences max)
- Stay focused on the technical topic
- Do NOT ask new questions
- Do NOT change the assessment flow
- End with "Now, let's continue with the assessment question."
- Do NOT use emojis

Context: %s
User's question: %s

Brief answer:`

const summaryPrompt = `STRICT INSTRUCTIONS:
- Generate personalized career recommendations for completed assessment
- Be encouraging and professional
- Focus on the provided topics and projects
- Do NOT ask new questions
- Do NOT restart any flow
- Keep it motivational but realistic
- 2-3 paragraphs maximum
- Do NOT use emojis

User: %s
Domain: %s
Level: %s
Recommended topics: %s
Recommended projects: %s

Personalized recommendation:`

func buildRephrase(prompt, domainName string) string {
	return fmt.Sprintf(rephrasePrompt, domainName, prompt)
}

func buildAcknowledge(answer string, class domain.AnswerClass) string {
	return fmt.Sprintf(acknowledgePrompt, answer, class)
}

func buildExplain(question, scope string) string {
	return fmt.Sprintf(explainPrompt, scope, question)
}

func buildSummary(req SummaryRequest) string {
	return fmt.Sprintf(summaryPrompt, req.UserName, req.Domain, req.Level,
		strings.Join(req.Topics, ", "), strings.Join(req.Projects, ", "))
}
