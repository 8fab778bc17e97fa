package line

import (
	"testing"
	"time"
)

func TestParseMessageType(t *testing.T) {
	tests := []struct {
		in   string
		want MessageType
	}{
		{"text", TypeText},
		{"TEXT", TypeText},
		{"Image", TypeImage},
		{"audio", TypeAudio},
		{"file", TypeFile},
		{"sticker", TypeNull},
		{"", TypeNull},
	}

	for _, tt := range tests {
		if got := ParseMessageType(tt.in); got != tt.want {
			t.Errorf("ParseMessageType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewMessage_TextRoundTrip(t *testing.T) {
	ts := FromMillis(1700000000000)
	msg, err := NewMessage("m1", TypeText, "hi", "", "reply-1", ts, "u1")
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}

	if msg.ID != "m1" {
		t.Errorf("ID = %q, want m1", msg.ID)
	}
	if msg.Type != TypeText {
		t.Errorf("Type = %v, want text", msg.Type)
	}
	if msg.Text != "hi" {
		t.Errorf("Text = %q, want hi", msg.Text)
	}
	if msg.Filename != SentinelFilename {
		t.Errorf("Filename = %q, want sentinel", msg.Filename)
	}
	if !msg.Timestamp.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Errorf("Timestamp = %v, want 1700000000s", msg.Timestamp)
	}
	if msg.Failed() {
		t.Error("valid message reported as failed")
	}
}

func TestNewMessage_FileSentinels(t *testing.T) {
	msg, err := NewMessage("m2", TypeFile, "", "report.pdf", "reply-1", time.Unix(0, 0), "u1")
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	if msg.Text != SentinelText {
		t.Errorf("Text = %q, want sentinel", msg.Text)
	}
	if msg.Filename != "report.pdf" {
		t.Errorf("Filename = %q, want report.pdf", msg.Filename)
	}
}

func TestNewMessage_EmptyID(t *testing.T) {
	if _, err := NewMessage("", TypeText, "hi", "", "r", time.Unix(0, 0), "u1"); err == nil {
		t.Error("NewMessage accepted empty id")
	}
}

func TestNormalize_UnknownType(t *testing.T) {
	ev := &Event{
		ReplyToken: "reply-1",
		EventID:    "ev-1",
		UserID:     "u1",
		Message:    RawMessage{Type: "sticker", ID: "m1"},
	}

	msg := Normalize(ev)
	if msg.ID != "" {
		t.Errorf("ID = %q, want empty for invalid message", msg.ID)
	}
	if !msg.Failed() {
		t.Error("invalid message not marked failed")
	}
	if msg.ErrorDescription != ErrNoMessageType.Error() {
		t.Errorf("ErrorDescription = %q, want %q", msg.ErrorDescription, ErrNoMessageType.Error())
	}
	if msg.ReplyToken != "reply-1" {
		t.Errorf("ReplyToken = %q, want preserved reply-1", msg.ReplyToken)
	}
}

func TestNormalize_MissingMessageID(t *testing.T) {
	ev := &Event{
		ReplyToken: "reply-1",
		UserID:     "u1",
		Message:    RawMessage{Type: "text", Text: "hi"},
	}

	msg := Normalize(ev)
	if !msg.Failed() {
		t.Error("message without id not marked failed")
	}
	if msg.ReplyToken != "reply-1" {
		t.Errorf("ReplyToken = %q, want preserved", msg.ReplyToken)
	}
}

func TestMessageString(t *testing.T) {
	null := InvalidMessage("whatever", "")
	if null.String() != "this is a null message" {
		t.Errorf("String() = %q", null.String())
	}

	msg, _ := NewMessage("m1", TypeText, "hi", "", "", time.Unix(0, 0), "u1")
	if msg.String() != "text : m1 : hi : "+SentinelFilename {
		t.Errorf("String() = %q", msg.String())
	}
}
