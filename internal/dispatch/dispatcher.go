package dispatch

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/linegate/internal/events"
	"github.com/mattjoyce/linegate/internal/line"
	"github.com/mattjoyce/linegate/internal/log"
)

// RecordHandler persists a text message.
type RecordHandler interface {
	Handle(ctx context.Context, msg line.Message) line.HandleStatus
}

// FetchHandler retrieves and stores the content of a media message.
type FetchHandler interface {
	Fetch(ctx context.Context, msg line.Message) line.HandleStatus
}

// ReplySender issues the outbound reply call to the platform.
type ReplySender interface {
	Send(ctx context.Context, replyToken, text string) (map[string]any, error)
}

// Result is the per-request dispatch outcome, mainly for the route
// handler's logging and for tests.
type Result struct {
	Status    line.HandleStatus
	ReplyText string
	Replied   bool
}

// Dispatcher runs the handler/report/reply tail of the pipeline for one
// normalized message at a time.
type Dispatcher struct {
	records RecordHandler
	fetcher FetchHandler
	replier ReplySender
	hub     *events.Hub
	logger  *slog.Logger
}

// New creates a Dispatcher. hub may be nil when nothing watches.
func New(records RecordHandler, fetcher FetchHandler, replier ReplySender, hub *events.Hub) *Dispatcher {
	return &Dispatcher{
		records: records,
		fetcher: fetcher,
		replier: replier,
		hub:     hub,
		logger:  log.WithComponent("dispatch"),
	}
}

// Dispatch routes msg to its handler, relays the outcome to a fresh
// reporter, composes the reply and sends it. Handler failures are never
// retried here; retry policy belongs to the handler's own collaborator.
func (d *Dispatcher) Dispatch(ctx context.Context, msg line.Message) Result {
	reporter := NewReporter()
	res := Result{Status: line.OK()}

	switch {
	case msg.Failed():
		// Upstream rejection: skip both handlers.
		reporter.ReportRejection(msg.ErrorDescription)
		res.Status = line.HandleStatus{Success: false}
		d.publish(events.MessageFailed, msg)
	case msg.Type == line.TypeText:
		res.Status = d.records.Handle(ctx, msg)
		d.report(reporter, res.Status, msg, events.MessageStored)
	default:
		res.Status = d.fetcher.Fetch(ctx, msg)
		d.report(reporter, res.Status, msg, events.MessageFetched)
	}

	res.ReplyText = reporter.ComposeReply(msg)
	res.Replied = d.reply(ctx, msg, res.ReplyText)
	return res
}

func (d *Dispatcher) report(reporter *Reporter, status line.HandleStatus, msg line.Message, okEvent string) {
	if status.Success {
		reporter.ReportSuccess(status.Outcome)
		d.publish(okEvent, msg)
		return
	}
	reporter.ReportError(status.Outcome)
	d.publish(events.MessageFailed, msg)
}

// reply sends the composed text. An empty reply token means no reply is
// possible: log and return without calling the collaborator. Transport
// failures are logged, never retried.
func (d *Dispatcher) reply(ctx context.Context, msg line.Message, text string) bool {
	if msg.ReplyToken == "" {
		d.logger.Info("no reply token, skipping reply", "message_id", msg.ID)
		return false
	}

	resp, err := d.replier.Send(ctx, msg.ReplyToken, text)
	if err != nil {
		d.logger.Error("reply call failed", "message_id", msg.ID, "error", err)
		return false
	}
	d.logger.Info("reply sent", "message_id", msg.ID, "response", resp)
	d.publish(events.ReplySent, msg)
	return true
}

func (d *Dispatcher) publish(eventType string, msg line.Message) {
	if d.hub == nil {
		return
	}
	d.hub.Publish(eventType, map[string]string{
		"message_id": msg.ID,
		"type":       string(msg.Type),
		"owner_id":   msg.OwnerID,
		"error":      msg.ErrorDescription,
	})
}
