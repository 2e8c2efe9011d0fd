package ai

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Purpose selects the prompt template a completion runs with.
type Purpose string

const (
	PurposeTurn   Purpose = "turn"
	PurposeReport Purpose = "report"
)

// Template variable names.
const (
	VarCoachPersonality = "coach_personality"
	VarCoachStyle       = "coach_style"
	VarLevel            = "level"
	VarFocusArea        = "focus_area"
	VarScenarioType     = "scenario_type"
	VarPreviousResponse = "previous_response"
	VarQuery            = "query"
	VarLog              = "log"
)

const turnSystemPrompt = `You are an expert interview coach running a realistic practice session for a recruiter.
Play the candidate when the recruiter asks a question, then step out of the role and coach the recruiter.

Training context:
- Coach style: {coach_personality}
- Style notes: {coach_style}
- Difficulty: {level}
- Focus area: {focus_area}
- Candidate profile: {scenario_type}

Rules:
1. When the recruiter asks a question, answer as the candidate first and then give feedback.
2. When the recruiter asks for guidance, give specific advice they can apply in the next question.
3. Name at least one strength and one thing to improve.
4. Offer a sharper alternative when a question is vague or leading.

Answer in three labelled parts:
[CANDIDATE RESPONSE]: the candidate's answer
[COACH FEEDBACK]: your assessment
[NEXT SUGGESTION]: what to ask or try next`

const turnUserPrompt = `Recent conversation:
{previous_response}

Recruiter says:
{query}`

const reportSystemPrompt = `You write concise, professional coaching reports for recruiters who have finished an interview practice session.`

const reportUserPrompt = `Write a coaching report for the practice session recorded below.

{log}

Cover, in separate sections:
1. Overall performance summary
2. Strengths the recruiter showed
3. Areas that need work
4. Concrete examples quoted from the session
5. Recommendations
6. Next steps for the following session`

// TurnTemplate renders the prompt for a single coaching turn.
func TurnTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(turnSystemPrompt),
		schema.UserMessage(turnUserPrompt),
	)
}

// ReportTemplate renders the prompt that summarizes a whole transcript.
func ReportTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(reportSystemPrompt),
		schema.UserMessage(reportUserPrompt),
	)
}

func templateFor(purpose Purpose) (prompt.ChatTemplate, bool) {
	switch purpose {
	case PurposeTurn:
		return TurnTemplate(), true
	case PurposeReport:
		return ReportTemplate(), true
	default:
		return nil, false
	}
}
