package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskhub/internal/server/middleware"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// Envelope is the body of every API response.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// Response is the huma output for an enveloped body with an explicit status.
type Response[T any] struct {
	Status int
	Body   Envelope[T]
}

// MessageBody is the envelope of responses without data.
type MessageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Status int
	Body   MessageBody
}

func ok[T any](data T) *Response[T] {
	return &Response[T]{Status: http.StatusOK, Body: Envelope[T]{Success: true, Data: data}}
}

func created[T any](data T, message string) *Response[T] {
	return &Response[T]{Status: http.StatusCreated, Body: Envelope[T]{Success: true, Data: data, Message: message}}
}

func updated[T any](data T, message string) *Response[T] {
	return &Response[T]{Status: http.StatusOK, Body: Envelope[T]{Success: true, Data: data, Message: message}}
}

func message(msg string) *MessageResponse {
	return &MessageResponse{Status: http.StatusOK, Body: MessageBody{Success: true, Message: msg}}
}

// principal returns the caller installed by middleware.Auth.
func principal(ctx context.Context) (tenancy.Principal, error) {
	p, found := middleware.PrincipalFromContext(ctx)
	if !found {
		return tenancy.Principal{}, huma.Error401Unauthorized("Access denied. No token provided.")
	}
	return p, nil
}
