package line

// Normalize converts an extracted event into a typed Message. It never
// fails outright: an unrecognized or missing message type, or a missing
// message id, yields a Message with an empty ID and a populated
// ErrorDescription that still carries the reply token, so the composer
// can answer with a diagnostic.
func Normalize(ev *Event) Message {
	typ := ParseMessageType(ev.Message.Type)
	if typ == TypeNull {
		return InvalidMessage(ErrNoMessageType.Error(), ev.ReplyToken)
	}

	msg, err := NewMessage(
		ev.Message.ID,
		typ,
		ev.Message.Text,
		ev.Message.FileName,
		ev.ReplyToken,
		ev.Timestamp,
		ev.UserID,
	)
	if err != nil {
		return InvalidMessage(err.Error(), ev.ReplyToken)
	}
	return msg
}
