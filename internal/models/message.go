package models

import (
	"time"
)

// Message is a single append-only message inside a thread. Messages are never
// edited or deleted; within a thread they are ordered by CreatedAt.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
