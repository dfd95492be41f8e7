package common

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPartIdentifierLength bounds a single part identifier.
const MaxPartIdentifierLength = 128

// FieldError is one failed rule for one input field.
type FieldError struct {
	Field   string
	Value   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %q %s", e.Field, e.Value, e.Message)
}

// Rule checks a single string value. It returns "" when the value passes.
type Rule func(value string) string

// Validator collects field errors across several checks.
type Validator struct {
	failures []FieldError
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Check applies rules to value in order and records the first failure only.
func (v *Validator) Check(field, value string, rules ...Rule) *Validator {
	for _, rule := range rules {
		if msg := rule(value); msg != "" {
			v.failures = append(v.failures, FieldError{Field: field, Value: value, Message: msg})
			break
		}
	}
	return v
}

// Failures returns the recorded field errors.
func (v *Validator) Failures() []FieldError {
	return v.failures
}

// Err returns nil when every check passed, else an INVALID_ARGUMENT AppError
// whose message joins all failures.
func (v *Validator) Err() error {
	if len(v.failures) == 0 {
		return nil
	}
	msgs := make([]string, len(v.failures))
	for i, f := range v.failures {
		msgs[i] = f.Error()
	}
	return NewAppError("INVALID_ARGUMENT", strings.Join(msgs, "; "), ErrInvalidInput)
}

// NotBlank rejects empty or whitespace-only values.
func NotBlank(value string) string {
	if strings.TrimSpace(value) == "" {
		return "is required"
	}
	return ""
}

// MaxRunes returns a rule rejecting values longer than n runes.
func MaxRunes(n int) Rule {
	return func(value string) string {
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("must be at most %d characters", n)
		}
		return ""
	}
}

// SingleLine rejects control characters, newlines included.
func SingleLine(value string) string {
	if strings.IndexFunc(value, unicode.IsControl) >= 0 {
		return "must not contain control characters"
	}
	return ""
}

// ValidatePartIdentifier trims part and checks it is usable as a prompt subject.
func ValidatePartIdentifier(part string) (string, error) {
	part = strings.TrimSpace(part)
	if err := NewValidator().Check("part_number", part, NotBlank, MaxRunes(MaxPartIdentifierLength), SingleLine).Err(); err != nil {
		return "", err
	}
	return part, nil
}

// RejectedPart is one batch entry left out because it failed validation.
type RejectedPart struct {
	Index      int    `json:"index"`
	PartNumber string `json:"part_number"`
	Reason     string `json:"error"`
}

// NormalizePartIdentifiers trims, drops empties and removes duplicates keeping first occurrence.
// Identifiers that fail validation are left out and reported individually, so one bad entry
// does not sink the batch. It fails only when no usable identifier remains.
func NormalizePartIdentifiers(parts []string) ([]string, []RejectedPart, error) {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	var rejected []RejectedPart
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v := NewValidator().Check(fmt.Sprintf("part_numbers[%d]", i), p, MaxRunes(MaxPartIdentifierLength), SingleLine)
		if f := v.Failures(); len(f) > 0 {
			rejected = append(rejected, RejectedPart{Index: i, PartNumber: p, Reason: f[0].Message})
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if len(out) == 0 {
		msg := "part_numbers must contain at least one valid identifier"
		if len(rejected) > 0 {
			msg = fmt.Sprintf("%s; %d rejected, first at index %d: %s", msg, len(rejected), rejected[0].Index, rejected[0].Reason)
		}
		return nil, rejected, NewAppError("INVALID_ARGUMENT", msg, ErrInvalidInput)
	}
	return out, rejected, nil
}
