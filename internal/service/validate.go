package service

import (
	"errors"
	"strings"

	"github.com/Mikeolab/devops-real-app/internal/domain"
)

// Validation sentinels. ErrMissingField carries the exact message returned to API clients.
var (
	ErrMissingField   = errors.New("name, phone, and service are required")
	ErrInvalidService = errors.New("service must be one of crypto, giftcard, webdev, seo")
	ErrInvalidNote    = errors.New("note must be text")
)

// ValidationError reports a payload that cannot become a lead.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateLead turns a raw request body into a LeadInput. It performs no I/O.
func ValidateLead(payload Payload) (LeadInput, error) {
	var in LeadInput

	for _, field := range []struct {
		key string
		dst *string
	}{
		{"name", &in.Name},
		{"phone", &in.Phone},
	} {
		value, ok := requiredText(payload, field.key)
		if !ok {
			return LeadInput{}, &ValidationError{Field: field.key, Err: ErrMissingField}
		}
		*field.dst = value
	}

	service, ok := requiredText(payload, "service")
	if !ok {
		return LeadInput{}, &ValidationError{Field: "service", Err: ErrMissingField}
	}
	in.Service = domain.ServiceType(service)
	if !in.Service.Valid() {
		return LeadInput{}, &ValidationError{Field: "service", Err: ErrInvalidService}
	}

	switch note := payload["note"].(type) {
	case nil:
	case string:
		in.Note = note
	default:
		return LeadInput{}, &ValidationError{Field: "note", Err: ErrInvalidNote}
	}

	return in, nil
}

// requiredText trims surrounding whitespace only; inner spacing is kept as submitted.
func requiredText(payload Payload, key string) (string, bool) {
	raw, ok := payload[key].(string)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	return value, value != ""
}
