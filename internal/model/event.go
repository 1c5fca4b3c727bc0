package model

import "time"

// InboundEvent is a user event delivered by a messaging transport.
type InboundEvent struct {
	UserID       string    `json:"userId"`
	Text         string    `json:"text"`
	CommandToken string    `json:"commandToken,omitempty"`
	Timestamp    time.Time `json:"timestamp"`

	// Profile hints used when the user is created on first contact.
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
}

// OutboundReply is what the transport delivers back to the user.
type OutboundReply struct {
	UserID  string        `json:"userId"`
	Text    string        `json:"text"`
	Options []ReplyOption `json:"options,omitempty"`
}

// ReplyOption is a quick-reply button. Choosing it sends Data back as the
// user's next message.
type ReplyOption struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}
