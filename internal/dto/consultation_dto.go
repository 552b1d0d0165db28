package dto

import "design-companion-be/internal/entity"

type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=120"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,max=120"`
}

type SessionSummaryResponse struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    int64  `json:"createdAt,omitempty"`
	UpdatedAt    int64  `json:"updatedAt"`
	UpdatedLabel string `json:"updatedLabel"`
	IsActive     bool   `json:"isActive"`
}

type SessionListResponse struct {
	Sessions        []SessionSummaryResponse `json:"sessions"`
	ActiveSessionId *string                  `json:"activeSessionId"`
}

type CreateSessionResponse struct {
	Session entity.ChatSession `json:"session"`
	UI      entity.UIState     `json:"ui"`
}

// SendMessageRequest carries text and an optional data URI image.
type SendMessageRequest struct {
	Content string `json:"content" validate:"max=20000"`
	Image   string `json:"image" validate:"omitempty,startswith=data:image/"`
}

type SendMessageResponse struct {
	Dropped     bool            `json:"dropped"`
	UserMessage *entity.Message `json:"userMessage,omitempty"`
	Reply       *entity.Message `json:"reply,omitempty"`
	Sources     []string        `json:"sources,omitempty"`
}

type ErrorSlotsResponse struct {
	Auth     string `json:"auth,omitempty"`
	Sessions string `json:"sessions,omitempty"`
	Library  string `json:"library,omitempty"`
}
