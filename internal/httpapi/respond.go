package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// response mirrors the teacher's envelope shape (success/data/error/timestamp)
// so operators already used to that wire format see the same thing here.
type response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *errInfo  `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type errInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{
		Success:   false,
		Error:     &errInfo{Code: code, Message: message},
		Timestamp: time.Now(),
	})
}
