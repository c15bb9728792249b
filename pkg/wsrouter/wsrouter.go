package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var ErrUnknownMessageType = errors.New("unknown message type")

// HandlerFunc handles a single inbound message with its payload already
// decoded into T.
type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, payload T) error

// Middleware wraps handlers after payload decoding, so it sees the payload as any.
type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandlerFunc receives every error returned by a handler, including
// payload decode failures and unknown message types.
type ErrorHandlerFunc func(ctx context.Context, conn *websocket.Conn, err error)

type WSRouter struct {
	routes       map[string]HandlerFunc[json.RawMessage]
	middlewares  []Middleware
	errorHandler ErrorHandlerFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc[json.RawMessage])}
}

func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *WSRouter) HandleError(h ErrorHandlerFunc) {
	r.errorHandler = h
}

// Handle registers a typed handler for the given message type. Must be called
// after Use; the middleware chain is captured at registration time.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	wrapped := func(ctx context.Context, conn *websocket.Conn, payload any) error {
		return handler(ctx, conn, payload.(T))
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	r.routes[messageType] = func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		return wrapped(ctx, conn, input)
	}
}

// ServeConn reads messages from the connection until a read error and routes
// each one. Handler errors go to the error handler, not to the caller.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)

		handler, exists := r.routes[msg.Type]
		if !exists {
			if r.errorHandler != nil {
				r.errorHandler(msgCtx, conn, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type))
			}
			continue
		}

		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			if r.errorHandler != nil {
				r.errorHandler(msgCtx, conn, err)
			}
		}
	}
}
