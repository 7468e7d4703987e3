package sialo

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// ObjectIDSize is the length of an object hash in bytes.
	ObjectIDSize = 32
	// AppKeySize is the length of an application key in bytes.
	AppKeySize = ed25519.PrivateKeySize
)

// ObjectID is the content hash identifying a stored object.
type ObjectID [ObjectIDSize]byte

// ParseObjectID decodes a hex encoded object hash. Surrounding whitespace
// is ignored.
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return id, fmt.Errorf("parse object id: %w: %v", ErrInvalidHex, err)
	}
	if len(b) != ObjectIDSize {
		return id, fmt.Errorf("parse object id: %w: expected %d bytes, got %d bytes", ErrInvalidLength, ObjectIDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String returns the lowercase hex form of the id.
func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the zero hash.
func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ObjectID) UnmarshalText(b []byte) error {
	parsed, err := ParseObjectID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// AppKey is the ed25519 private key issued to a registered application.
// It is the credential for every later command and must not be logged;
// String redacts it and Hex is the explicit export.
type AppKey [AppKeySize]byte

// ParseAppKey decodes a hex encoded application key. Surrounding
// whitespace is ignored. A value that is not hex and a value of the wrong
// decoded length fail with different errors.
func ParseAppKey(s string) (AppKey, error) {
	var key AppKey
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return key, fmt.Errorf("parse app key from hex: %w: %v", ErrInvalidHex, err)
	}
	if len(b) != AppKeySize {
		return key, fmt.Errorf("parse app key: %w: expected %d bytes, got %d bytes", ErrInvalidLength, AppKeySize, len(b))
	}
	copy(key[:], b)
	return key, nil
}

// AppKeyFromPrivateKey copies an ed25519 private key into an AppKey.
func AppKeyFromPrivateKey(priv ed25519.PrivateKey) (AppKey, error) {
	var key AppKey
	if len(priv) != AppKeySize {
		return key, fmt.Errorf("app key: %w: expected %d bytes, got %d bytes", ErrInvalidLength, AppKeySize, len(priv))
	}
	copy(key[:], priv)
	return key, nil
}

// Hex returns the full key as lowercase hex.
func (k AppKey) Hex() string {
	return hex.EncodeToString(k[:])
}

// String implements fmt.Stringer without revealing the key.
func (k AppKey) String() string {
	return "AppKey(" + k.PublicKeyHex()[:8] + "…)"
}

// PrivateKey returns the key as an ed25519 private key.
func (k AppKey) PrivateKey() ed25519.PrivateKey {
	priv := make(ed25519.PrivateKey, AppKeySize)
	copy(priv, k[:])
	return priv
}

// PublicKey returns the ed25519 public half of the key.
func (k AppKey) PublicKey() ed25519.PublicKey {
	return k.PrivateKey().Public().(ed25519.PublicKey)
}

// PublicKeyHex returns the public key as lowercase hex.
func (k AppKey) PublicKeyHex() string {
	return hex.EncodeToString(k.PublicKey())
}

// Sign signs msg with the key.
func (k AppKey) Sign(msg []byte) []byte {
	return ed25519.Sign(k.PrivateKey(), msg)
}
