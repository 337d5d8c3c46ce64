package driving

import (
	"context"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// AskService answers questions from indexed documents.
type AskService interface {
	// Ask validates, retrieves and assembles context before returning. Errors in
	// those steps are returned directly and no stream is opened. On success the
	// returned channel yields text events followed by exactly one terminal event,
	// then is closed. Cancelling ctx stops generation and closes the channel.
	Ask(ctx context.Context, req domain.AskRequest) (<-chan domain.AnswerEvent, error)
}
