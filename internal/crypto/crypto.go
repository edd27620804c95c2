package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"pubsubchat/internal"

	"golang.org/x/crypto/hkdf"
)

// Byte number used by the shared secret and the derived AES-256 key.
const KeySize = 32

var (
	_ IPayloadCodec = Plain{}
	_ IPayloadCodec = &Sealer{}
)

// Plain leaves payloads untouched.
type Plain struct{}

func (Plain) Seal(_ string, plaintext []byte) ([]byte, error) { return plaintext, nil }

func (Plain) Open(_ string, payload []byte) ([]byte, error) { return payload, nil }

// Sealer encrypts payloads with AES-GCM under a key derived from a secret
// both participants share.
type Sealer struct {
	secret []byte
}

func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) < KeySize {
		return nil, fmt.Errorf("crypto: secret must be at least %d bytes, got %d", KeySize, len(secret))
	}
	return &Sealer{secret: secret}, nil
}

// Generate fresh random secret of KeySize bytes.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, fmt.Errorf("crypto: secret generation failed: %w", err)
	}
	return secret, nil
}

// LoadSecret reads a base64 secret as written by the keygen command.
func LoadSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret %s: %w", path, err)
	}

	secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", path, err)
	}
	return secret, nil
}

// Construct the Additional Authenticated Data (AAD) for AES
// 1. Version -> Prevents mixing versions
// 2. Topic -> Prevents copying ciphertext to another topic and still decrypting
func BuildAAD(topic, version string) []byte {
	return []byte(fmt.Sprintf("%s|%s", version, topic))
}

func (s *Sealer) Seal(topic string, plaintext []byte) ([]byte, error) {
	key, err := s.deriveKey(topic)
	if err != nil {
		return nil, err
	}

	iv, ciphertext, err := Encrypt(key, plaintext, BuildAAD(topic, internal.SupportedVersion))
	if err != nil {
		return nil, err
	}

	envelope := internal.Envelope{
		Version:    internal.SupportedVersion,
		Nonce:      base64.StdEncoding.EncodeToString(iv),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}

	envelopeJSON, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("crypto: marshal envelope: %w", err)
	}
	return envelopeJSON, nil
}

func (s *Sealer) Open(topic string, payload []byte) ([]byte, error) {
	var envelope internal.Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: invalid envelope JSON: %w", internal.ErrDecode, err)
	}
	if envelope.Version != internal.SupportedVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %q", internal.ErrDecode, envelope.Version)
	}

	nonce, err := base64.StdEncoding.DecodeString(envelope.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode nonce: %w", internal.ErrDecode, err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode ciphertext: %w", internal.ErrDecode, err)
	}

	key, err := s.deriveKey(topic)
	if err != nil {
		return nil, err
	}

	plaintext, err := Decrypt(key, nonce, ciphertext, BuildAAD(topic, envelope.Version))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internal.ErrDecode, err)
	}
	return plaintext, nil
}

// deriveKey gives every topic its own AES key from the one shared secret.
func (s *Sealer) deriveKey(topic string) ([]byte, error) {
	key := make([]byte, KeySize)
	info := []byte("pubsubchat " + internal.SupportedVersion + " " + topic)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.secret, nil, info), key); err != nil {
		return nil, fmt.Errorf("crypto: key derivation failed: %w", err)
	}
	return key, nil
}

// Encrypt plaintext with AES-GCM. Returns a fresh IV and the ciphertext with
// the authentication tag appended.
func Encrypt(key, plaintext, aad []byte) (iv, ciphertext []byte, err error) {

	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	// New IV for every encryption
	iv = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, fmt.Errorf("crypto: nonce generation failed: %w", err)
	}

	ciphertext = gcm.Seal(nil, iv, plaintext, aad)
	return iv, ciphertext, nil
}

// Decrypt verifies the authentication tag and decrypts in one step.
func Decrypt(key, iv, ciphertext, aad []byte) ([]byte, error) {

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("crypto: nonce must be %d bytes, got %d", gcm.NonceSize(), len(iv))
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("crypto: decryption failed: %w", err)
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: cipher init failed: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: GCM init failed: %w", err)
	}
	return gcm, nil
}
