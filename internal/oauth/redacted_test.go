package oauth

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestRedactedSecret_NeverRendersValue(t *testing.T) {
	secret := NewRedactedSecret("super-secret-value")

	renderings := map[string]string{
		"%v":  fmt.Sprintf("%v", secret),
		"%+v": fmt.Sprintf("%+v", secret),
		"%#v": fmt.Sprintf("%#v", secret),
		"%s":  fmt.Sprintf("%s", secret),
	}
	for verb, out := range renderings {
		if strings.Contains(out, "super-secret-value") {
			t.Errorf("Verb %s leaked the secret: %q", verb, out)
		}
	}

	data, err := json.Marshal(secret)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(data) != `"[REDACTED]"` {
		t.Errorf("Expected redacted JSON, got %s", data)
	}

	text, err := secret.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(text) != "[REDACTED]" {
		t.Errorf("Expected redacted text, got %s", text)
	}

	if secret.Value() != "super-secret-value" {
		t.Error("Value must return the wrapped secret")
	}
}

func TestRedactedSecret_IsEmpty(t *testing.T) {
	if !NewRedactedSecret("").IsEmpty() {
		t.Error("Empty secret should report empty")
	}
	if NewRedactedSecret("x").IsEmpty() {
		t.Error("Non-empty secret should not report empty")
	}
}
