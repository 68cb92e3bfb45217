package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// HandleHealth reports liveness. The relay has no external dependencies on
// the hot path, so alive means serving.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}
