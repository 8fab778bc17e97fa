package line

import (
	"fmt"
	"strings"
	"time"
)

// MessageType classifies the message sub-object of a webhook event.
type MessageType string

const (
	TypeNull  MessageType = ""
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeAudio MessageType = "audio"
	TypeFile  MessageType = "file"
)

// Placeholder values for fields that do not apply to the message type.
// Kept as descriptive strings rather than empty values so record rows and
// log lines stay readable.
const (
	SentinelText     = "this is a file message"
	SentinelFilename = "this is a text message"
)

// ParseMessageType maps a wire type string to a MessageType,
// case-insensitively. Unrecognized or missing types yield TypeNull.
func ParseMessageType(s string) MessageType {
	switch strings.ToLower(s) {
	case "text":
		return TypeText
	case "image":
		return TypeImage
	case "audio":
		return TypeAudio
	case "file":
		return TypeFile
	default:
		return TypeNull
	}
}

// IsMedia reports whether the type requires a content fetch from the
// platform's data endpoint.
func (t MessageType) IsMedia() bool {
	return t == TypeImage || t == TypeAudio || t == TypeFile
}

// Message is the normalized unit of work flowing through the pipeline.
// A Message with a non-empty ErrorDescription is a first-class failed
// message, not an exception: it still reaches the reporter and composer
// so a diagnostic reply can be issued when a reply token exists.
type Message struct {
	ID               string
	Type             MessageType
	Text             string
	Filename         string
	ReplyToken       string
	Timestamp        time.Time
	OwnerID          string
	ErrorDescription string
}

// NewMessage builds a valid Message. The platform message id is required;
// absent text/filename fields get their placeholder values.
func NewMessage(id string, typ MessageType, text, filename, replyToken string, ts time.Time, ownerID string) (Message, error) {
	if id == "" {
		return Message{}, fmt.Errorf("message id is empty")
	}
	if text == "" {
		text = SentinelText
	}
	if filename == "" {
		filename = SentinelFilename
	}
	return Message{
		ID:         id,
		Type:       typ,
		Text:       text,
		Filename:   filename,
		ReplyToken: replyToken,
		Timestamp:  ts,
		OwnerID:    ownerID,
	}, nil
}

// InvalidMessage builds a failed Message carrying a rejection reason.
// The reply token is preserved so a diagnostic reply can still go out.
func InvalidMessage(reason, replyToken string) Message {
	return Message{
		Type:             TypeNull,
		ReplyToken:       replyToken,
		ErrorDescription: reason,
	}
}

// Failed reports whether the message carries a processing failure.
func (m Message) Failed() bool {
	return m.ErrorDescription != ""
}

func (m Message) String() string {
	if m.Type == TypeNull {
		return "this is a null message"
	}
	return fmt.Sprintf("%s : %s : %s : %s", m.Type, m.ID, m.Text, m.Filename)
}
