package utils

import (
	"encoding/json"
	"net/http"
)

// Payload is the envelope used for error responses.
type Payload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSONResponse writes payload as JSON with the given status. A nil payload writes headers only.
func JSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func ErrorResponse(w http.ResponseWriter, status int, message string) {
	JSONResponse(w, status, Payload{
		Success: false,
		Message: message,
	})
}
