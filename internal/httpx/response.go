// Package httpx holds the small HTTP plumbing shared by every
// handler: JSON response writing, the snake_case error envelope, and
// the CORS middleware for the browser storefront.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the envelope for every non-2xx body. Error carries
// a stable snake_case code ("insufficient_stock", "invalid_transition")
// and Details optional structured context for the client.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload as a JSON body with the given status. A nil
// payload is written as JSON null.
func JSON(w http.ResponseWriter, status int, payload any) {
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			// Marshal before writing the status so a failure never
			// leaves a partial body behind a 2xx.
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError writes the error envelope with the given code and details.
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}
