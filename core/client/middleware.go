package client

import (
	"context"

	"github.com/leofalp/crewgraph/providers/ai"
)

// SendFunc sends a chat request to the provider and returns the completed
// response. It is the unit threaded through the middleware chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// Middleware wraps a SendFunc. Middlewares are applied outermost-first: the
// first one passed to WithMiddleware is the first to see a request.
type Middleware func(next SendFunc) SendFunc

// buildSendChain wraps the provider call with middlewares, the first entry
// ending up outermost.
func buildSendChain(provider ai.Provider, middlewares []Middleware) SendFunc {
	var chain SendFunc = func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		return provider.SendMessage(ctx, request)
	}
	for index := len(middlewares) - 1; index >= 0; index-- {
		chain = middlewares[index](chain)
	}
	return chain
}
