package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/mattjoyce/linegate/internal/line"
	"github.com/mattjoyce/linegate/internal/log"
)

// Reporter collects the outcome of one request lifecycle and decides the
// reply content. At most one reply is pending at a time; a later error
// overwrites an earlier one.
type Reporter struct {
	logger *slog.Logger

	// pending is the error description for the reply, empty when the
	// request succeeded so far.
	pending string
}

// NewReporter creates a Reporter for a single request lifecycle.
func NewReporter() *Reporter {
	return &Reporter{logger: log.WithComponent("reporter")}
}

// ReportError records a failed handler outcome as the pending reply
// payload, overwriting any previous pending payload.
func (r *Reporter) ReportError(outcome line.ProcessOutcome) {
	r.pending = outcome.Description()
	r.logger.Warn("handler failed", "outcome", outcome.Description())
}

// ReportRejection records an upstream rejection (a failed Message) as the
// pending reply payload.
func (r *Reporter) ReportRejection(description string) {
	r.pending = description
	r.logger.Warn("message rejected", "reason", description)
}

// ReportSuccess logs a successful outcome. It does not clear a pending
// error; success of a later stage never hides an earlier failure.
func (r *Reporter) ReportSuccess(outcome line.ProcessOutcome) {
	r.logger.Info("handler succeeded", "outcome", outcome.Description())
}

// Failed reports whether an error is pending.
func (r *Reporter) Failed() bool {
	return r.pending != ""
}

// ComposeReply builds the reply text for the message. Error replies carry
// the pending description; success replies acknowledge the message type.
func (r *Reporter) ComposeReply(msg line.Message) string {
	if r.pending != "" {
		return fmt.Sprintf("we have a problem: %s", r.pending)
	}
	return fmt.Sprintf("we have received and processed your %s message.", msg.Type)
}
