package oauth

// RedactedSecret holds a credential that must never appear in logs or
// serialized output. Every rendering path a secret could accidentally take
// (fmt verbs, text and JSON marshaling) yields "[REDACTED]"; the wrapped
// value only leaves through an explicit Value call.
//
//	secret := oauth.NewRedactedSecret("client-secret-value")
//	fmt.Println(secret)      // [REDACTED]
//	secret.Value()           // "client-secret-value"
type RedactedSecret struct {
	value string
}

// NewRedactedSecret wraps value for safe handling.
func NewRedactedSecret(value string) RedactedSecret {
	return RedactedSecret{value: value}
}

// Value returns the wrapped secret. Call it only at the point the secret
// goes into an outbound request, and never log the result.
func (s RedactedSecret) Value() string {
	return s.value
}

// String implements fmt.Stringer.
func (s RedactedSecret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer, covering %#v formatting.
func (s RedactedSecret) GoString() string {
	return "oauth.RedactedSecret{[REDACTED]}"
}

// IsEmpty reports whether no secret was set.
func (s RedactedSecret) IsEmpty() bool {
	return s.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (s RedactedSecret) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// MarshalJSON implements json.Marshaler.
func (s RedactedSecret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
