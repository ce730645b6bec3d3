package driving

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// AnswerService answers queries against a project's indexed chunks.
type AnswerService interface {
	// AnswerQuery embeds the query, retrieves up to limit relevant
	// chunks from the project's collection and generates an answer
	// conditioned on them.
	//
	// Outcomes are distinct: (nil, nil) means the index holds no
	// relevant knowledge; (nil, err) means a provider or store failed.
	AnswerQuery(ctx context.Context, projectID, query string, limit int) (*domain.Answer, error)
}
