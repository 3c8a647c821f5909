package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	wrapping "github.com/hashicorp/go-kms-wrapping/v2"
	"github.com/hashicorp/go-kms-wrapping/v2/aead"
	"golang.org/x/crypto/hkdf"
	"google.golang.org/protobuf/proto"
)

// codecKeyID identifies the derived artifact key inside the AEAD wrapper.
// It is wrapper-internal bookkeeping only; key info is stripped from the
// artifact before encoding.
const codecKeyID = "artifact"

// hkdfInfo binds derived keys to this purpose. Changing it (or the shared
// secret) invalidates every previously issued artifact, which is the
// intended rotation behavior: holders fail to decode and re-authenticate.
var hkdfInfo = []byte("graphgate token bundle v1")

// derivedKeyLen is the AES-256-GCM key size.
const derivedKeyLen = 32

// Codec seals TokenBundle values into opaque string artifacts and opens
// them again. Encryption is authenticated: any modification of an
// artifact's bytes makes Decode fail rather than yield a different bundle.
//
// A Codec is immutable after construction and safe for concurrent use.
// Replicas constructed from the same shared secret decode each other's
// artifacts with no further coordination.
type Codec struct {
	wrapper *aead.Wrapper
}

// NewCodec derives the artifact key from sharedSecret via HKDF-SHA256 and
// prepares the AEAD wrapper around it. The shared secret itself is never
// retained.
func NewCodec(sharedSecret []byte) (*Codec, error) {
	if len(sharedSecret) == 0 {
		return nil, &ConfigError{Reason: "missing shared secret for artifact codec"}
	}

	key := make([]byte, derivedKeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedSecret, nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("failed to derive artifact key: %w", err)
	}

	wrapper := aead.NewWrapper()
	if _, err := wrapper.SetConfig(context.Background(), wrapping.WithKeyId(codecKeyID)); err != nil {
		return nil, fmt.Errorf("failed to configure artifact wrapper: %w", err)
	}
	if err := wrapper.SetAesGcmKeyBytes(key); err != nil {
		return nil, fmt.Errorf("failed to set artifact key bytes: %w", err)
	}

	return &Codec{wrapper: wrapper}, nil
}

// Encode seals the bundle into an opaque artifact string suitable for
// client-side storage such as a cookie value. Pure transformation: no side
// effects, nothing logged.
func (c *Codec) Encode(ctx context.Context, bundle *TokenBundle) (string, error) {
	if bundle == nil || bundle.RefreshToken == "" {
		return "", fmt.Errorf("refusing to encode bundle without refresh token")
	}

	plaintext, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("failed to marshal bundle: %w", err)
	}

	blob, err := c.wrapper.Encrypt(ctx, plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt bundle: %w", err)
	}

	// The artifact must not identify its key: there is exactly one derived
	// key per deployment, and every byte that survives into the artifact
	// has to be covered by the GCM tag (via ciphertext) or break
	// decryption when flipped (the IV).
	blob.KeyInfo = nil

	raw, err := proto.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("failed to marshal encrypted blob: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode opens an artifact produced by Encode under the same shared secret.
// Every failure mode, from transport corruption to a rotated secret, is
// reported as ErrDecode; callers must treat them identically and never
// attempt partial recovery.
func (c *Codec) Decode(ctx context.Context, artifact string) (*TokenBundle, error) {
	if artifact == "" {
		return nil, fmt.Errorf("%w: empty artifact", ErrDecode)
	}

	raw, err := base64.RawURLEncoding.Strict().DecodeString(artifact)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid encoding", ErrDecode)
	}

	blob := &wrapping.BlobInfo{}
	if err := proto.Unmarshal(raw, blob); err != nil {
		return nil, fmt.Errorf("%w: invalid envelope", ErrDecode)
	}

	plaintext, err := c.wrapper.Decrypt(ctx, blob)
	if err != nil {
		// Tamper, truncation, or key mismatch. Deliberately not
		// distinguished: the recovery path is re-authentication either way.
		return nil, fmt.Errorf("%w: decryption failed", ErrDecode)
	}

	var bundle TokenBundle
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		return nil, fmt.Errorf("%w: invalid bundle payload", ErrDecode)
	}
	if bundle.RefreshToken == "" {
		return nil, fmt.Errorf("%w: bundle missing refresh token", ErrDecode)
	}

	return &bundle, nil
}
