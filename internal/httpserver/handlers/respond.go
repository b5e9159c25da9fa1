package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/logger"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// writeError maps the domain error taxonomy to HTTP status codes.
// Persistence and unknown errors are logged and hidden from the caller.
func writeError(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	status := http.StatusInternalServerError
	msg := "An unexpected error occurred"

	switch {
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	default:
		d.Logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err))
	}
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// decode reads a JSON body into dst and runs struct validation.
// Every failure is an ErrValidation.
func decode(r *http.Request, d deps.Deps, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return domain.Validationf("invalid JSON body: %v", err)
	}
	if d.Validate == nil {
		return nil
	}
	if err := d.Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return domain.Validationf("%s", describe(verrs))
		}
		return domain.Validationf("%v", err)
	}
	return nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return "Missing or invalid fields: " + strings.Join(parts, ", ")
}

// pathParam returns the decoded value of a route parameter. chi routes on
// r.URL.RawPath when it is set, which leaves escapes such as %2F in the value.
func pathParam(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", domain.Validationf("invalid %s in path: %q", key, raw)
	}
	return v, nil
}
