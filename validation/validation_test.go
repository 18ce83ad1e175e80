package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/procexec/errors"
)

type retrySection struct {
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=0"`
}

type jobSection struct {
	Command string        `mapstructure:"command" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Mode    string        `mapstructure:"mode" validate:"omitempty,oneof=fast slow"`
	Retry   *retrySection `mapstructure:"retry"`
	NoTag   string        `validate:"omitempty,alpha"`
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(jobSection{Command: "echo hi", Mode: "fast"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	err := Validate(jobSection{
		Timeout: -time.Second,
		Mode:    "medium",
		Retry:   &retrySection{MaxAttempts: -1},
		NoTag:   "not-alpha",
	})

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}

	for _, want := range []string{
		"command: is required",
		"timeout: must be at least 0",
		"mode: must be one of: fast slow",
		"retry.max_attempts: must be at least 0",
		"no_tag: is invalid",
	} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("expected %q in %q", want, appErr.Message)
		}
	}

	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 5 {
		t.Fatalf("expected 5 field errors, got %v", appErr.Details["fields"])
	}
}

func TestValidate_NotAStruct(t *testing.T) {
	err := Validate("not a struct")
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	for in, want := range map[string]string{
		"Command":     "command",
		"MaxAttempts": "max_attempts",
		"GracePeriod": "grace_period",
	} {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
