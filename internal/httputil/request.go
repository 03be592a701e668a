package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"scribe/internal/config"
	"scribe/internal/domain"
)

// maxBodyBytes leaves room for JSON escaping of the largest accepted content.
const maxBodyBytes = 2*config.MaxContentLength + 4<<10

// ParseJSON decodes a single JSON object from the request body into dest.
// Unknown fields, trailing data and oversized bodies are validation errors.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &domain.ValidationError{Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)}
		}
		return &domain.ValidationError{Message: "invalid JSON: " + err.Error()}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &domain.ValidationError{Message: "request body must contain a single JSON object"}
	}
	return nil
}
