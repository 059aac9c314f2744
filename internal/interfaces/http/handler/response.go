package handler

import "github.com/solarerp/backend/internal/interfaces/http/dto"

// The types below only describe response bodies for the OpenAPI docs and
// for decoding in tests; handlers write dto.Response.

// APIResponse is the envelope of every successful response. List endpoints
// fill Meta with the page position.
// @Description Response envelope with typed data
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of every failure. Validation failures list
// the offending fields in error.details; domain rule violations carry an
// ERR_ code such as ERR_INSUFFICIENT_STOCK or ERR_ALREADY_PAID.
// @Description Error envelope
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
