package encoding

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type cartProps struct {
	UserID string   `msgpack:"user_id"`
	Items  []string `msgpack:"items"`
	Total  int      `msgpack:"total"`
}

// TestCodec_SignedRoundTrip_PreservesProps verifies Encode/Decode with a
// signed token.
func TestCodec_SignedRoundTrip_PreservesProps(t *testing.T) {
	// Arrange
	codec, err := NewCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewCodec returned error: %v", err)
	}
	props := cartProps{UserID: "u-7", Items: []string{"a", "b"}, Total: 42}

	// Act
	token, err := codec.Encode(props)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	var got cartProps
	if err := codec.Decode(token, &got); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	// Assert
	if diff := cmp.Diff(props, got); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestCodec_TamperedToken_FailsVerification verifies flipping payload
// bytes breaks the signature.
func TestCodec_TamperedToken_FailsVerification(t *testing.T) {
	// Arrange
	codec, _ := NewCodec([]byte("test-secret"))
	token, err := codec.Encode(cartProps{UserID: "u-7"})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	// Act: alter one payload character
	flip := "A"
	if token[0] == 'A' {
		flip = "B"
	}
	tampered := flip + token[1:]
	var got cartProps
	err = codec.Decode(tampered, &got)

	// Assert
	if !errors.Is(err, ErrSignatureInvalid) && !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Expected signature or format error, got %v", err)
	}
}

// TestCodec_MissingSignature_InvalidFormat verifies tokens without the
// signature separator are rejected early.
func TestCodec_MissingSignature_InvalidFormat(t *testing.T) {
	// Arrange
	codec, _ := NewCodec([]byte("test-secret"))

	// Act
	var got cartProps
	err := codec.Decode("bm9zaWc", &got)

	// Assert
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Expected ErrInvalidFormat, got %v", err)
	}
}

// TestCodec_SensitiveRoundTrip_OpaqueAndRecoverable verifies encrypted
// tokens round-trip and do not leak the payload.
func TestCodec_SensitiveRoundTrip_OpaqueAndRecoverable(t *testing.T) {
	// Arrange
	codec, _ := NewCodec([]byte("test-secret"))
	props := cartProps{UserID: "secret-user"}

	// Act
	token, err := codec.EncodeSensitive(props)
	if err != nil {
		t.Fatalf("EncodeSensitive returned error: %v", err)
	}
	var got cartProps
	if err := codec.DecodeSensitive(token, &got); err != nil {
		t.Fatalf("DecodeSensitive returned error: %v", err)
	}

	// Assert
	if got.UserID != "secret-user" {
		t.Errorf("Expected UserID round-tripped, got %q", got.UserID)
	}
	if strings.Contains(token, "secret-user") {
		t.Error("Encrypted token must not contain the plaintext payload")
	}
}

// TestCodec_WrongKey_CannotDecode verifies tokens are bound to the key
// that produced them.
func TestCodec_WrongKey_CannotDecode(t *testing.T) {
	// Arrange
	signer, _ := NewCodec([]byte("key-one"))
	other, _ := NewCodec([]byte("key-two"))
	token, err := signer.Encode(cartProps{UserID: "u-1"})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	// Act
	var got cartProps
	err = other.Decode(token, &got)

	// Assert
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Expected ErrSignatureInvalid, got %v", err)
	}
}
