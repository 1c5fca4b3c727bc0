package model

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

const (
	SourceGemini   = "gemini"
	SourceFallback = "fallback"
	SourceCommand  = "command"
	SourceUser     = "user"
	SourceCheckin  = "checkin"
)

type ConversationTurn struct {
	ID        string       `db:"id" json:"id"`
	UserID    string       `db:"user_id" json:"user_id"`
	Role      Role         `db:"role" json:"role"`
	Variant   AgentVariant `db:"variant" json:"variant"`
	Text      string       `db:"text" json:"text"`
	Source    string       `db:"source" json:"source"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
