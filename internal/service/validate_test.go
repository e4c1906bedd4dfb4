package service

import (
	"errors"
	"testing"

	"github.com/Mikeolab/devops-real-app/internal/domain"
)

func TestValidateLead_Accepts(t *testing.T) {
	input, err := ValidateLead(Payload{
		"name":    "  Jane   Doe ",
		"phone":   "+1 555\t0100",
		"service": "crypto",
		"note":    "Looking to sell USDT",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if input.Name != "Jane   Doe" {
		t.Errorf("expected trimmed name, got %q", input.Name)
	}
	if input.Phone != "+1 555\t0100" {
		t.Errorf("expected phone with inner spacing kept, got %q", input.Phone)
	}
	if input.Service != domain.ServiceCrypto {
		t.Errorf("expected crypto, got %q", input.Service)
	}
	if input.Note != "Looking to sell USDT" {
		t.Errorf("note must be kept verbatim, got %q", input.Note)
	}
}

func TestValidateLead_KeepsInnerWhitespace(t *testing.T) {
	cases := []struct {
		name      string
		payload   Payload
		wantName  string
		wantPhone string
	}{
		{"double space", Payload{"name": "Mary  Ann", "phone": "0100", "service": "seo"}, "Mary  Ann", "0100"},
		{"tabs and newlines", Payload{"name": "Mary  Ann\tLee", "phone": "+1  555\n0100", "service": "seo"}, "Mary  Ann\tLee", "+1  555\n0100"},
		{"surrounding only", Payload{"name": "\t Mary  Ann \n", "phone": " 0100 ", "service": "seo"}, "Mary  Ann", "0100"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input, err := ValidateLead(tc.payload)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if input.Name != tc.wantName {
				t.Errorf("expected name %q, got %q", tc.wantName, input.Name)
			}
			if input.Phone != tc.wantPhone {
				t.Errorf("expected phone %q, got %q", tc.wantPhone, input.Phone)
			}
		})
	}
}

func TestValidateLead_NoteDefaults(t *testing.T) {
	for name, payload := range map[string]Payload{
		"absent": {"name": "Jane", "phone": "1", "service": "seo"},
		"null":   {"name": "Jane", "phone": "1", "service": "seo", "note": nil},
	} {
		t.Run(name, func(t *testing.T) {
			input, err := ValidateLead(payload)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if input.Note != "" {
				t.Fatalf("expected empty note, got %q", input.Note)
			}
		})
	}
}

func TestValidateLead_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
		field   string
		want    error
	}{
		{"empty body", Payload{}, "name", ErrMissingField},
		{"name only", Payload{"name": "Jane"}, "phone", ErrMissingField},
		{"missing service", Payload{"name": "Jane", "phone": "1"}, "service", ErrMissingField},
		{"blank name", Payload{"name": "   ", "phone": "1", "service": "crypto"}, "name", ErrMissingField},
		{"empty phone", Payload{"name": "Jane", "phone": "", "service": "crypto"}, "phone", ErrMissingField},
		{"numeric phone", Payload{"name": "Jane", "phone": 5550100, "service": "crypto"}, "phone", ErrMissingField},
		{"unknown service", Payload{"name": "Jane", "phone": "1", "service": "consulting"}, "service", ErrInvalidService},
		{"service case", Payload{"name": "Jane", "phone": "1", "service": "Crypto"}, "service", ErrInvalidService},
		{"numeric note", Payload{"name": "Jane", "phone": "1", "service": "crypto", "note": 42}, "note", ErrInvalidNote},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateLead(tc.payload)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, ve.Field)
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateLead_MissingFieldMessage(t *testing.T) {
	_, err := ValidateLead(Payload{"name": "Jane"})
	if err == nil || err.Error() != "name, phone, and service are required" {
		t.Fatalf("unexpected message: %v", err)
	}
}
