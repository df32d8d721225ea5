package session

import (
	"context"

	"docchat/internal/domain"
)

// Ask runs one chat turn: the question is recorded, the engine is queried and
// the answer is recorded. On failure the user entry stays without a reply so
// the transcript remains chronological and the question can be retried.
func Ask(ctx context.Context, h *History, asker Asker, question string) (domain.Response, error) {
	h.Append(domain.RoleUser, question)
	resp, err := asker.Query(ctx, question)
	if err != nil {
		return domain.Response{}, err
	}
	h.Append(domain.RoleAssistant, resp.String())
	return resp, nil
}
