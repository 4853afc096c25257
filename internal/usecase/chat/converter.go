package chat

import (
	"regexp"
	"strings"

	"github.com/estudia/study-backend/internal/entity"
)

const fallbackStudyQuestion = "¿Cuáles son los puntos principales de este documento?"

// questionLineRe matches "1. ...", "2) ..." and "- ..." list items.
var questionLineRe = regexp.MustCompile(`^\s*(?:\d+[.)]|-)\s*(.+)$`)

func toMessageView(msg *entity.ChatMessage) entity.MessageView {
	return entity.MessageView{
		Index:   msg.MessageIndex,
		Role:    msg.Role,
		Content: msg.Content,
	}
}

func toConversationResponse(session *entity.ChatSession, messages []entity.ChatMessage) *entity.ConversationResponse {
	resp := &entity.ConversationResponse{
		SessionID: session.ID,
		StudentID: session.StudentID,
		Title:     session.Title,
		Messages:  make([]entity.MessageView, 0, len(messages)),
	}

	for i := range messages {
		resp.Messages = append(resp.Messages, toMessageView(&messages[i]))
	}

	return resp
}

// parseQuestions pulls list items out of the model's reply, one question
// per line. Lines that are not list items are ignored.
func parseQuestions(reply string) []string {
	var questions []string

	for _, line := range strings.Split(reply, "\n") {
		m := questionLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if question := strings.TrimSpace(m[1]); question != "" {
			questions = append(questions, question)
		}
	}

	return questions
}
