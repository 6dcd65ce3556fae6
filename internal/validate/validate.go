// Package validate enforces the closed-world input policy shared by every
// public endpoint: bounded body size, strict JSON objects, allow-listed
// field names, and per-field format rules. Any single violation fails the
// whole request with one categorical error code.
package validate

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Byte ceilings applied before JSON parsing is attempted.
const (
	MaxBodyBytes     = 16 * 1024
	MaxQuizBodyBytes = 32 * 1024
	MaxEmailLen      = 254
	MaxShortTextLen  = 250
	MaxLongTextLen   = 1024
	MinPhoneDigits   = 10
	MaxPhoneDigits   = 13
	MinTokenLen      = 8
	MaxTokenLen      = 128
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	tokenRegex = regexp.MustCompile(`^\w{8,128}$`)
	digitRegex = regexp.MustCompile(`\D`)
)

// ReadObject reads at most maxBytes from body and parses it as a JSON
// object. Arrays, null, and primitives are rejected. The second return is a
// categorical error code, empty on success. Oversized bodies are rejected
// before any parsing happens.
func ReadObject(body io.Reader, maxBytes int64) (map[string]json.RawMessage, string) {
	data, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		return nil, "invalid_body"
	}
	if int64(len(data)) > maxBytes {
		return nil, "body_too_large"
	}
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, "invalid_json"
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, "invalid_json"
	}
	return obj, ""
}

// Kind selects the format rule applied to a field.
type Kind int

const (
	KindUUID Kind = iota
	KindEmail
	KindPhone
	KindText
	KindToken
	KindObject
)

// Field describes one allow-listed field of an endpoint schema.
type Field struct {
	Kind     Kind
	Required bool
	MaxLen   int // texts only; 0 means MaxShortTextLen
}

// Schema maps allow-listed field names to their rules. Field names absent
// from the schema cause outright rejection of the request.
type Schema map[string]Field

// Apply checks raw against the schema and returns normalized values keyed
// by field name, or a categorical error code. Normalization: emails are
// trimmed and lower-cased, phones reduced to digits, texts kept verbatim,
// objects decoded to map[string]interface{}.
func (s Schema) Apply(raw map[string]json.RawMessage) (map[string]interface{}, string) {
	for name := range raw {
		if _, ok := s[name]; !ok {
			return nil, "unknown_field"
		}
	}

	out := make(map[string]interface{}, len(raw))
	for name, rule := range s {
		rawVal, present := raw[name]
		if !present {
			if rule.Required {
				return nil, "missing_" + name
			}
			continue
		}

		if rule.Kind == KindObject {
			var obj map[string]interface{}
			if err := json.Unmarshal(rawVal, &obj); err != nil || obj == nil {
				return nil, "invalid_" + name
			}
			out[name] = obj
			continue
		}

		var str string
		if err := json.Unmarshal(rawVal, &str); err != nil {
			// Wrong type is a hard rejection, never a coercion.
			return nil, "invalid_" + name
		}

		switch rule.Kind {
		case KindUUID:
			if !UUIDv4(str) {
				return nil, "invalid_" + name
			}
			out[name] = str
		case KindEmail:
			norm, ok := NormalizeEmail(str)
			if !ok {
				return nil, "invalid_" + name
			}
			out[name] = norm
		case KindPhone:
			norm, ok := NormalizePhone(str)
			if !ok {
				return nil, "invalid_" + name
			}
			out[name] = norm
		case KindToken:
			if !Token(str) {
				return nil, "invalid_" + name
			}
			out[name] = str
		case KindText:
			max := rule.MaxLen
			if max == 0 {
				max = MaxShortTextLen
			}
			if len(str) > max {
				return nil, "invalid_" + name
			}
			out[name] = str
		}
	}
	return out, ""
}

// Text returns the normalized string for name, or "" if absent.
func Text(vals map[string]interface{}, name string) string {
	if v, ok := vals[name].(string); ok {
		return v
	}
	return ""
}

// UUIDv4 reports whether s is exactly a canonical v4 UUID.
func UUIDv4(s string) bool {
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Version() == 4
}

// NormalizeEmail trims and lower-cases an email address. Valid only if the
// result matches local@domain.tld and fits the length cap.
func NormalizeEmail(s string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(s))
	if e == "" || len(e) > MaxEmailLen || !emailRegex.MatchString(e) {
		return "", false
	}
	return e, true
}

// NormalizePhone strips every non-digit character. Valid only if 10–13
// digits remain.
func NormalizePhone(s string) (string, bool) {
	digits := digitRegex.ReplaceAllString(s, "")
	if len(digits) < MinPhoneDigits || len(digits) > MaxPhoneDigits {
		return "", false
	}
	return digits, true
}

// Token reports whether s is a plausible access token: word characters
// only, 8–128 chars. Checked before any storage lookup so malformed input
// never reaches the database.
func Token(s string) bool {
	return tokenRegex.MatchString(s)
}
