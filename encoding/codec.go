// Package encoding serializes component props for round-tripping through
// URLs and form fields. Props are packed with msgpack and either signed
// (visible but tamper-proof) or encrypted (fully opaque).
package encoding

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Sentinel errors for token decoding.
var (
	ErrInvalidFormat    = errors.New("encoding: invalid token format")
	ErrSignatureInvalid = errors.New("encoding: signature verification failed")
	ErrDecryptFailed    = errors.New("encoding: token decryption failed")
)

// Codec encodes and decodes props tokens. The zero value is not usable;
// construct with NewCodec.
type Codec struct {
	key []byte
	gcm cipher.AEAD
}

// NewCodec creates a codec from a secret key. Keys shorter than 32 bytes
// are stretched with SHA-256 so AES-256 always gets a full-size key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) < 32 {
		h := sha256.Sum256(key)
		key = h[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Codec{key: key, gcm: gcm}, nil
}

// Encode packs v and returns a signed token. Use EncodeSensitive when the
// props must not be readable by the client.
func (c *Codec) Encode(v any) (string, error) {
	packed, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding: pack props: %w", err)
	}
	return c.sign(packed), nil
}

// EncodeSensitive packs and encrypts v with AES-256-GCM.
func (c *Codec) EncodeSensitive(v any) (string, error) {
	packed, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding: pack props: %w", err)
	}
	return c.encrypt(packed)
}

// Decode verifies a signed token and unpacks it into v.
func (c *Codec) Decode(token string, v any) error {
	packed, err := c.verify(token)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(packed, v); err != nil {
		return fmt.Errorf("encoding: unpack props: %w", err)
	}
	return nil
}

// DecodeSensitive decrypts an encrypted token and unpacks it into v.
func (c *Codec) DecodeSensitive(token string, v any) error {
	packed, err := c.decrypt(token)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(packed, v); err != nil {
		return fmt.Errorf("encoding: unpack props: %w", err)
	}
	return nil
}

// sign produces base64(data).base64(hmac[:16]).
func (c *Codec) sign(data []byte) string {
	b64 := base64.RawURLEncoding.EncodeToString(data)
	mac := hmac.New(sha256.New, c.key)
	mac.Write(data)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16])
	return b64 + "." + sig
}

func (c *Codec) verify(token string) ([]byte, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidFormat
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidFormat
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidFormat
	}

	mac := hmac.New(sha256.New, c.key)
	mac.Write(data)
	if !hmac.Equal(sig, mac.Sum(nil)[:16]) {
		return nil, ErrSignatureInvalid
	}
	return data, nil
}

func (c *Codec) encrypt(data []byte) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ciphertext := c.gcm.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func (c *Codec) decrypt(token string) ([]byte, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	if len(ciphertext) < c.gcm.NonceSize() {
		return nil, ErrDecryptFailed
	}
	nonce := ciphertext[:c.gcm.NonceSize()]
	plain, err := c.gcm.Open(nil, nonce, ciphertext[c.gcm.NonceSize():], nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}
