package line

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Rejection reasons surfaced by Extract. ErrRedelivery is the one case
// where the correct action is to produce no observable output at all.
var (
	ErrNoEvents      = errors.New("no valid message events")
	ErrRedelivery    = errors.New("event is a redelivery")
	ErrNoUserID      = errors.New("no user id found")
	ErrNoMessageType = errors.New("no valid message type found")
)

// webhookBody mirrors the platform's webhook envelope. Unknown fields are
// ignored on purpose; the platform adds fields without notice.
type webhookBody struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	ReplyToken      string          `json:"replyToken"`
	WebhookEventID  string          `json:"webhookEventId"`
	DeliveryContext deliveryContext `json:"deliveryContext"`
	Source          eventSource     `json:"source"`
	Timestamp       int64           `json:"timestamp"`
	Message         *RawMessage     `json:"message"`
}

type deliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

type eventSource struct {
	UserID string `json:"userId"`
}

// RawMessage is the message sub-object of a webhook event, before
// normalization.
type RawMessage struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Text     string `json:"text"`
	FileName string `json:"fileName"`
}

// Event is the extraction result for one accepted webhook event.
type Event struct {
	ReplyToken string
	EventID    string
	UserID     string
	Timestamp  time.Time
	Message    RawMessage
}

// Extract parses the signature-verified envelope and returns its first
// event. The events list is treated as size-one: current deployments of
// the platform deliver a single event per callback, and any events past
// the first are ignored.
//
// Rejections come back as ErrNoEvents, ErrRedelivery or ErrNoUserID;
// all of them occur before a reply token is captured, so no reply is
// possible for a rejected envelope.
func Extract(body []byte) (*Event, error) {
	var envelope webhookBody
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoEvents, err)
	}
	if len(envelope.Events) == 0 {
		return nil, ErrNoEvents
	}

	ev := envelope.Events[0]
	if ev.DeliveryContext.IsRedelivery {
		return nil, ErrRedelivery
	}
	if ev.Source.UserID == "" {
		return nil, ErrNoUserID
	}
	if ev.Message == nil {
		return nil, ErrNoEvents
	}

	return &Event{
		ReplyToken: ev.ReplyToken,
		EventID:    ev.WebhookEventID,
		UserID:     ev.Source.UserID,
		Timestamp:  FromMillis(ev.Timestamp),
		Message:    *ev.Message,
	}, nil
}

// FromMillis converts a platform millisecond timestamp to a
// seconds-resolution instant. Converting the same input twice yields
// identical instants.
func FromMillis(ms int64) time.Time {
	return time.Unix(ms/1000, 0).UTC()
}
