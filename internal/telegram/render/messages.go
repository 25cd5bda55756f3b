package render

import (
	"fmt"

	"github.com/kigali-health/screening-backend/internal/entity"
)

const (
	MsgWelcome = `👋 Hello! I'm the typhoid fever screening assistant.

I'll ask you 17 short questions about your symptoms and history, then give you a preliminary risk assessment.

Send /screen to begin.`

	MsgHelp = `🤖 Commands:

/screen - Start a new screening
/report - Resend your assessment
/cancel - End the current screening
/help - Show this message

Answer each question with the number or option shown. The assessment is preliminary and never replaces a clinical diagnosis.`

	MsgNoActiveSession   = "No active screening. Send /screen to begin."
	MsgSessionInProgress = "A screening is already in progress. Answer the current question or send /cancel first."
	MsgSessionFinished   = "Screening ended. Send /screen to start over."
	MsgReportNotReady    = "The assessment isn't ready yet. Finish answering the questions first."

	ErrGeneric = "❌ Something went wrong. Please try again or send /screen to restart."
)

// Question renders a question with its progress indicator. Prompts carry
// their options inline and the reply keyboard repeats them, so nothing else
// is added.
func Question(q *entity.QuestionDTO) string {
	return fmt.Sprintf("(%s) %s", q.Progress, q.Question)
}

// AgentReply renders a mid-interview agent message (acknowledgment or
// validation hint, both already include the question to answer) with the
// progress of the question awaiting an answer.
func AgentReply(q *entity.QuestionDTO, message string) string {
	return fmt.Sprintf("(%s) %s", q.Progress, message)
}
