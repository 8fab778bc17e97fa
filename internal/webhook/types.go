package webhook

import (
	"context"

	"github.com/mattjoyce/linegate/internal/dispatch"
	"github.com/mattjoyce/linegate/internal/line"
)

// MessageDispatcher runs the handler/report/reply tail of the pipeline.
type MessageDispatcher interface {
	Dispatch(ctx context.Context, msg line.Message) dispatch.Result
}

// WebhookResponse is the JSON response for accepted callbacks.
type WebhookResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON response for webhook errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse is the admin user lookup payload.
type UserResponse struct {
	ID         string `json:"id"`
	LineUserID string `json:"lineUserId"`
	IsActive   bool   `json:"isActive"`
	CreatedAt  string `json:"createdAt"`
}

// MessageResponse is one entry of the admin recent-messages payload.
type MessageResponse struct {
	ID         string  `json:"id"`
	LineUserID string  `json:"lineUserId"`
	Message    string  `json:"message"`
	Filename   string  `json:"filename"`
	Filepath   *string `json:"filepath,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// MaxBodySize caps inbound webhook bodies.
const MaxBodySize = int64(1 << 20) // 1 MB
