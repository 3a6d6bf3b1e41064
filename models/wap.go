package models

import "time"

// WAP is a work allocation plan task assigned to a user
type WAP struct {
	ID         string    `json:"_id"`
	User       *UserRef  `json:"user,omitempty"`
	Task       string    `json:"task"`
	AssignDate string    `json:"assignDate,omitempty"`
	SubmitDate string    `json:"submitDate,omitempty"`
	Status     bool      `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StatusLabel renders the completion flag for display
func (w *WAP) StatusLabel() string {
	if w.Status {
		return "Completed"
	}
	return "Pending"
}

// WAPRequest creates or edits a WAP assignment
type WAPRequest struct {
	UserID string `json:"userId" validate:"required"`
	Task   string `json:"task" validate:"required"`
}

// WAPSubmitRequest records the assignee's submit date
type WAPSubmitRequest struct {
	WapID      string `json:"wapId" validate:"required"`
	SubmitDate string `json:"submitDate" validate:"required"`
}
