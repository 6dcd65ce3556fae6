package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadObject_OversizedBody_RejectedBeforeParsing(t *testing.T) {
	// Not even valid JSON: the ceiling must trip before any parse attempt.
	huge := strings.Repeat("x", MaxBodyBytes+1)
	obj, code := ReadObject(strings.NewReader(huge), MaxBodyBytes)
	assert.Nil(t, obj)
	assert.Equal(t, "body_too_large", code)
}

func TestReadObject_NonObjectBodies(t *testing.T) {
	for _, body := range []string{`[]`, `null`, `42`, `"hello"`, `not json`} {
		obj, code := ReadObject(strings.NewReader(body), MaxBodyBytes)
		assert.Nil(t, obj, "body %q", body)
		assert.Equal(t, "invalid_json", code, "body %q", body)
	}
}

func TestReadObject_ValidObject(t *testing.T) {
	obj, code := ReadObject(strings.NewReader(`{"a":1,"b":"two"}`), MaxBodyBytes)
	require.Empty(t, code)
	assert.Len(t, obj, 2)
}

func TestSchema_UnknownField_RejectsWholeRequest(t *testing.T) {
	schema := Schema{"session_id": {Kind: KindUUID, Required: true}}
	raw, code := ReadObject(strings.NewReader(
		`{"session_id":"3a6f1e42-9d2b-4c7e-8f1a-5b9c2d4e6a80","surprise":"x"}`), MaxBodyBytes)
	require.Empty(t, code)

	vals, code := schema.Apply(raw)
	assert.Nil(t, vals)
	assert.Equal(t, "unknown_field", code)
}

func TestSchema_MissingRequiredField(t *testing.T) {
	schema := Schema{"session_id": {Kind: KindUUID, Required: true}}
	raw, _ := ReadObject(strings.NewReader(`{}`), MaxBodyBytes)

	_, code := schema.Apply(raw)
	assert.Equal(t, "missing_session_id", code)
}

func TestSchema_WrongTypeIsHardRejection(t *testing.T) {
	schema := Schema{"variant": {Kind: KindText}}
	raw, _ := ReadObject(strings.NewReader(`{"variant":7}`), MaxBodyBytes)

	_, code := schema.Apply(raw)
	assert.Equal(t, "invalid_variant", code)
}

func TestSchema_NormalizesEmailAndPhone(t *testing.T) {
	schema := Schema{
		"email":    {Kind: KindEmail},
		"whatsapp": {Kind: KindPhone},
	}
	raw, _ := ReadObject(strings.NewReader(
		`{"email":"  User@Example.COM ","whatsapp":"+1 (555) 123-4567"}`), MaxBodyBytes)

	vals, code := schema.Apply(raw)
	require.Empty(t, code)
	assert.Equal(t, "user@example.com", vals["email"])
	assert.Equal(t, "15551234567", vals["whatsapp"])
}

func TestUUIDv4(t *testing.T) {
	assert.True(t, UUIDv4("3a6f1e42-9d2b-4c7e-8f1a-5b9c2d4e6a80"))

	for _, s := range []string{
		"",
		"not-a-uuid",
		"3a6f1e42-9d2b-1c7e-8f1a-5b9c2d4e6a80",                 // v1
		"urn:uuid:3a6f1e42-9d2b-4c7e-8f1a-5b9c2d4e6a80",        // non-canonical
		"3a6f1e42-9d2b-4c7e-8f1a-5b9c2d4e6a80-extra-character", // too long
	} {
		assert.False(t, UUIDv4(s), "input %q", s)
	}
}

func TestNormalizeEmail(t *testing.T) {
	_, ok := NormalizeEmail("no-at-sign")
	assert.False(t, ok)

	_, ok = NormalizeEmail("a@b") // missing tld
	assert.False(t, ok)

	_, ok = NormalizeEmail(strings.Repeat("a", 250) + "@example.com")
	assert.False(t, ok, "over length cap")

	got, ok := NormalizeEmail("X@Y.dev")
	assert.True(t, ok)
	assert.Equal(t, "x@y.dev", got)
}

func TestNormalizePhone(t *testing.T) {
	_, ok := NormalizePhone("123456789") // 9 digits
	assert.False(t, ok)

	_, ok = NormalizePhone("12345678901234") // 14 digits
	assert.False(t, ok)

	got, ok := NormalizePhone("(555) 123-4567")
	assert.True(t, ok)
	assert.Equal(t, "5551234567", got)

	got, ok = NormalizePhone("+1 555 123 4567")
	assert.True(t, ok)
	assert.Equal(t, "15551234567", got)
}

func TestToken(t *testing.T) {
	assert.False(t, Token("a"), "too short")
	assert.False(t, Token(strings.Repeat("a", 129)), "too long")
	assert.False(t, Token("abcd-efgh"), "hyphen is not a word character")
	assert.False(t, Token("abc def ghi"), "whitespace")
	assert.True(t, Token("abcDEF123_456789"))
	assert.True(t, Token(strings.Repeat("f", 48)))
}
