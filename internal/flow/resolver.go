package flow

import (
	"fmt"

	"api-orchestrator/internal/types"
)

// CycleError aborts a whole flow before any endpoint runs. EndpointID names
// the endpoint whose edge closed the cycle.
type CycleError struct {
	EndpointID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected at endpoint %q", e.EndpointID)
}

const (
	markWhite = iota // unvisited
	markGrey         // on the current DFS path
	markBlack        // fully visited
)

// Order topologically sorts endpoints so every endpoint appears after the
// endpoints its connections read from. Connections whose source is not in
// the input set impose no ordering constraint; they are resolved lazily at
// execution time, where a missing source becomes a skipped connection.
// Endpoints with no ordering constraint between them keep their input order.
func Order(endpoints []*types.Endpoint) ([]*types.Endpoint, error) {
	byID := make(map[string]*types.Endpoint, len(endpoints))
	for _, ep := range endpoints {
		byID[ep.ID] = ep
	}

	marks := make(map[string]int, len(endpoints))
	ordered := make([]*types.Endpoint, 0, len(endpoints))

	var visit func(ep *types.Endpoint) error
	visit = func(ep *types.Endpoint) error {
		switch marks[ep.ID] {
		case markGrey:
			return &CycleError{EndpointID: ep.ID}
		case markBlack:
			return nil
		}
		marks[ep.ID] = markGrey
		for _, conn := range ep.Connections {
			source, present := byID[conn.SourceEndpointID]
			if !present {
				continue
			}
			if err := visit(source); err != nil {
				return err
			}
		}
		marks[ep.ID] = markBlack
		ordered = append(ordered, ep)
		return nil
	}

	for _, ep := range endpoints {
		if err := visit(ep); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
