package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/talgya/cropplan/internal/plan"
)

// problem is the JSON error document every non-2xx response carries.
type problem struct {
	Status int               `json:"status"`
	Title  string            `json:"title"`
	Detail string            `json:"detail,omitempty"`
	Code   string            `json:"code,omitempty"`
	Errors []plan.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeJSON(w, status, problem{Status: status, Title: title, Detail: detail})
}

// writeValidation renders a 422 with the per-field error list.
func writeValidation(w http.ResponseWriter, verr *plan.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, problem{
		Status: http.StatusUnprocessableEntity,
		Title:  "invalid plan",
		Code:   "validation_failed",
		Errors: verr.Errors,
	})
}
