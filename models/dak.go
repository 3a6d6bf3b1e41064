package models

import (
	"strings"
	"time"
)

// DakStatus is the workflow state reported by the backend
type DakStatus string

const (
	DakStatusUploaded  DakStatus = "uploaded"
	DakStatusForwarded DakStatus = "forwarded"
	DakStatusActioned  DakStatus = "actioned"
	DakStatusCompleted DakStatus = "completed"
)

// AdviceStatusNone marks an advice slot that was never requested
const AdviceStatusNone = "NA"

// Dak is a tracked inbound document routed through the workflow
type Dak struct {
	ID                 string          `json:"_id"`
	MailID             string          `json:"mail_id"`
	Subject            string          `json:"subject"`
	LetterNumber       string          `json:"letterNumber,omitempty"`
	Source             string          `json:"source,omitempty"`
	Status             DakStatus       `json:"status"`
	IsReturned         bool            `json:"isReturned"`
	ReceivedBy         *UserRef        `json:"receivedBy,omitempty"`
	UserAdviceRequests []AdviceRequest `json:"userAdviceRequest,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Forwardable returns true while the dak has not moved past upload
func (d *Dak) Forwardable() bool {
	return strings.EqualFold(string(d.Status), string(DakStatusUploaded))
}

// Returnable returns true until the dak has been returned once
func (d *Dak) Returnable() bool {
	return !d.IsReturned
}

// AdviceRequest is one advice query attached to a dak
type AdviceRequest struct {
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	HeadResponse string    `json:"headResponse,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AdviceRow is a flattened advice request joined with its dak
type AdviceRow struct {
	DakID        string    `json:"dakId"`
	Subject      string    `json:"subject"`
	LetterNumber string    `json:"letterNumber,omitempty"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	HeadResponse string    `json:"headResponse,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UploadDakRequest carries the metadata for a multipart dak upload
type UploadDakRequest struct {
	MailID     string `json:"mail_id" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
	ReceivedBy string `json:"receivedBy" validate:"required"`
	Source     string `json:"source" validate:"required,oneof=mail hand post email"`
}

// ForwardDakRequest forwards a dak to another user
type ForwardDakRequest struct {
	DakID  string `json:"dakId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
	Advice string `json:"advice,omitempty"`
}

// ReturnDakRequest sends a dak back to its sender
type ReturnDakRequest struct {
	DakID  string `json:"dakId" validate:"required"`
	Remark string `json:"remark,omitempty"`
}

// ReminderRequest sends a reminder about a dak
type ReminderRequest struct {
	DakID   string `json:"dakId" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// MarkActionRequest records an action taken on a dak
type MarkActionRequest struct {
	DakID  string `json:"dakId" validate:"required"`
	Action string `json:"action" validate:"required"`
}

// AdviceQueryRequest asks a head for advice on a dak
type AdviceQueryRequest struct {
	DakID string `json:"dakId" validate:"required"`
	Query string `json:"query" validate:"required"`
}

// AdviceResponseRequest answers an advice query
type AdviceResponseRequest struct {
	DakID        string `json:"dakId" validate:"required"`
	HeadResponse string `json:"headResponse" validate:"required"`
}

// MessageResponse is the generic backend acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// TrackingEntry is one step in a dak's audit trail
type TrackingEntry struct {
	ID        string    `json:"_id"`
	Action    string    `json:"action"`
	Actor     *UserRef  `json:"actor,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
