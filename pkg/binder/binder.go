// Package binder decodes request payloads into typed structs with strict
// validation of content type and body shape.
package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

var (
	// ErrMissingContentType is returned when the request carries no
	// Content-Type header.
	ErrMissingContentType = errors.New("missing content type")
	// ErrUnsupportedMediaType is returned for non-JSON payloads.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrInvalidJSON is returned when the body is not a single well-formed
	// JSON value matching the target struct.
	ErrInvalidJSON = errors.New("invalid JSON")
)

// JSON decodes the request body into v. Unknown fields and trailing data are
// rejected so malformed clients fail loudly instead of silently losing data.
func JSON(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON value", ErrInvalidJSON)
	}
	return nil
}
