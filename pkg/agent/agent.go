// Package agent defines the contract for the conversational AI collaborator.
// The pipeline treats the agent as a function from (prior history, new input)
// to (reply text, updated history); the history's internal shape is owned by
// the agent implementation.
package agent

import (
	"context"

	"tgbridge/pkg/content"
	"tgbridge/pkg/conversation"
)

// Reply is the outcome of one agent invocation. History is the complete
// transcript after the exchange, ready to persist verbatim.
type Reply struct {
	Text    string
	History []conversation.Turn
}

// Agent produces a reply for new content given the chat's prior history.
type Agent interface {
	Respond(ctx context.Context, history []conversation.Turn, input content.Content) (Reply, error)
}
