package models

import "time"

// Notification is a message delivered to the current user
type Notification struct {
	ID        string    `json:"_id"`
	Message   string    `json:"message"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnyUnseen reports whether at least one notification is unseen
func AnyUnseen(items []Notification) bool {
	for _, n := range items {
		if !n.Seen {
			return true
		}
	}
	return false
}
