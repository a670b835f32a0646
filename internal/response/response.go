// Package response provides shared JSON response helpers for HTTP handlers.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard API response envelope. Error carries a stable
// machine-readable code; Message is the human-readable explanation. Details
// is populated only in non-production environments.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details string      `json:"details,omitempty"`
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response with data.
func OK(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 response with data.
func Created(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// List writes a 200 response with data and an explicit element count.
func List(w http.ResponseWriter, count int, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Count: &count, Data: data})
}

// Fail writes an error response with the given status, human-readable
// message, and machine-readable code.
func Fail(w http.ResponseWriter, status int, message, code string) {
	JSON(w, status, Envelope{Success: false, Message: message, Error: code})
}

// FailWithDetails is Fail with internal detail attached. Callers gate details
// on the environment so internals never leak in production.
func FailWithDetails(w http.ResponseWriter, status int, message, code, details string) {
	JSON(w, status, Envelope{Success: false, Message: message, Error: code, Details: details})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, message, code string) {
	Fail(w, http.StatusBadRequest, message, code)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, message string) {
	Fail(w, http.StatusUnauthorized, message, "UNAUTHORIZED")
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, message, "NOT_FOUND")
}

// Conflict writes a 409 response.
func Conflict(w http.ResponseWriter, message, code string) {
	Fail(w, http.StatusConflict, message, code)
}

// InternalError writes a 500 response with a generic message.
func InternalError(w http.ResponseWriter) {
	Fail(w, http.StatusInternalServerError, "An unexpected error occurred", "SERVER_ERROR")
}
