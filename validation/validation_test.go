package validation

import (
	"strings"
	"testing"
)

type sample struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	Retries int    `mapstructure:"retries" validate:"gte=0"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(sample{BaseURL: "https://api.example.com", Retries: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ReportsConfigKeys(t *testing.T) {
	err := Validate(sample{BaseURL: "", Retries: -1})
	if err == nil {
		t.Fatal("expected error")
	}

	verr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("got %d field errors, want 2", len(verr.Fields))
	}
	if verr.Fields[0].Field != "base_url" {
		t.Errorf("field = %q, want %q", verr.Fields[0].Field, "base_url")
	}
	if !strings.Contains(err.Error(), "retries must be >= 0") {
		t.Errorf("message %q missing retries constraint", err.Error())
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("BaseURL"); got != "base_u_r_l" {
		// Acronyms split letter by letter; the tag name func prefers
		// struct tags so this path is a fallback only.
		t.Errorf("toSnakeCase(BaseURL) = %q", got)
	}
	if got := toSnakeCase("Timeout"); got != "timeout" {
		t.Errorf("toSnakeCase(Timeout) = %q", got)
	}
}
