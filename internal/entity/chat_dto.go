package entity

type RegisterStudentRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type CreateSessionRequest struct {
	Title     string `json:"title"`
	StudentID string `json:"student_id"`
}

type SendMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type MessageView struct {
	Index   int      `json:"id"`
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type SendMessageResponse struct {
	UserMessage      MessageView `json:"user_message"`
	AssistantMessage MessageView `json:"assistant_message"`
	Fallback         bool        `json:"fallback,omitempty"`
}

type ConversationResponse struct {
	SessionID string        `json:"session_id"`
	StudentID string        `json:"student_id"`
	Title     string        `json:"title"`
	Messages  []MessageView `json:"messages"`
}
