package assessment

import (
	"fmt"
	"strings"

	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/interrupt"
)

const (
	greeting        = "Hello! I'm your Tech Skills Counsellor. I'll help you assess your technical abilities and provide personalized recommendations."
	askName         = "Let's start with some basic information. What's your name?"
	askEducation    = "What's your educational background or field of study?"
	askDomain       = "Which tech domain are you interested in? (Frontend, Backend, DevOps, ML, etc.)"
	continuePrompt  = "Let's continue with your assessment."
	invalidName     = "Please tell me your name using letters only."
	invalidLocation = "Please tell me your city or country."
	invalidEdu      = "Please tell me your educational background."
	infoComplete    = "Your basic information is already complete."
	unclearAnswer   = "Please answer with 'yes' or 'no'."
	completedReply  = "Assessment completed!"
	alreadyComplete = "Your assessment is complete. Ask me anything about your results, or name another domain to try."
	chatNotReady    = "Please complete the assessment first."
)

// Post-assessment chat replies.
const (
	thanksReply    = "You're very welcome! I'm glad I could help. Feel free to ask if you have any other questions about your learning journey!"
	docsFirstReply = "That's a great question! For specific technical guidance, I recommend checking these official resources and documentation:"
	docsAgainReply = "I'd be happy to help! Could you be more specific about what you'd like to know? You can also refer to the documentation links I shared earlier."
	defaultReply   = "Thanks for your question! I'm here to help with your learning journey. Is there anything specific you'd like to know about your assessment or career path?"
	feedbackPlain  = "Thank you for your feedback!"
)

func promptFor(sess *domain.Session) string {
	switch sess.Stage {
	case domain.StageAskName:
		return askName
	case domain.StageAskLocation:
		return fmt.Sprintf("Nice to meet you, %s! Where are you located?", sess.UserName)
	case domain.StageAskEducation:
		return askEducation
	case domain.StageDomainSelection:
		return askDomain
	case domain.StageDomainEvaluation:
		if q, ok := sess.CurrentQuestion(); ok {
			return q.Prompt
		}
	}
	return continuePrompt
}

func fieldFor(stage domain.Stage) interrupt.Field {
	switch stage {
	case domain.StageAskLocation:
		return interrupt.FieldLocation
	case domain.StageAskEducation:
		return interrupt.FieldEducation
	default:
		return interrupt.FieldName
	}
}

func domainChosen(name, title string) string {
	if name == "" {
		return fmt.Sprintf("Perfect! Let's assess your %s skills.", title)
	}
	return fmt.Sprintf("Excellent choice, %s! Let's assess your %s skills.", name, title)
}

func switchOffer(title string) string {
	return fmt.Sprintf("I see you're interested in %s! Would you like to take the %s assessment instead? Just say 'yes' and we'll start.", title, title)
}

func switched(title string) string {
	return fmt.Sprintf("Great! I've switched to %s. Let's assess your %s skills.", title, title)
}

func switchDeclined(title string) string {
	return fmt.Sprintf("No problem! We'll stay with %s.", title)
}

func improveReply(title string, tips []string) string {
	return fmt.Sprintf("To improve your %s skills, I recommend focusing on: %s. Start with hands-on projects and practice regularly!", title, strings.Join(tips, ", "))
}

func feedbackThanks(name string) string {
	return fmt.Sprintf("Thank you so much for your valuable feedback, %s! For further learning, I recommend checking these official resources:", name)
}
