// Package dispatch routes normalized messages to their handlers and turns
// handler outcomes into the user-facing reply.
//
// A text message goes to the record handler (persistence); image, audio
// and file messages go to the fetch handler (content download). A message
// that arrives already carrying an upstream rejection skips both handlers
// and goes straight to the reporter's error path.
//
// The reporter is the single place that decides what the reply will say.
// Handlers report outcomes; nothing else composes reply text.
package dispatch
