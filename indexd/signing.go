package indexd

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sagarc03/sialo"
)

// Headers carried by every signed indexer request.
const (
	HeaderKey       = "X-Sia-Key"
	HeaderTimestamp = "X-Sia-Timestamp"
	HeaderSignature = "X-Sia-Signature"
)

// Query parameters of a share link.
const (
	ShareParamKey       = "key"
	ShareParamExpires   = "expires"
	ShareParamSignature = "sig"
)

// DefaultMaxSkew is how far a request timestamp may drift from the
// verifier's clock.
const DefaultMaxSkew = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrBadSignature     = errors.New("signature mismatch")
	ErrStaleRequest     = errors.New("request timestamp outside allowed skew")
	ErrUnknownKey       = errors.New("unknown app key")
)

// RequestSigningMessage is the byte string an app key signs for a request.
func RequestSigningMessage(method, path string, timestamp int64) []byte {
	return []byte(method + " " + path + " " + strconv.FormatInt(timestamp, 10))
}

// ShareSigningMessage is the byte string an app key signs for a share link.
func ShareSigningMessage(id sialo.ObjectID, expires int64) []byte {
	return []byte("share " + id.String() + " " + strconv.FormatInt(expires, 10))
}

// SignRequest returns the headers that authenticate method and path as key.
func SignRequest(key sialo.AppKey, method, path string, now time.Time) map[string]string {
	ts := now.Unix()
	return map[string]string{
		HeaderKey:       key.PublicKeyHex(),
		HeaderTimestamp: strconv.FormatInt(ts, 10),
		HeaderSignature: hex.EncodeToString(key.Sign(RequestSigningMessage(method, path, ts))),
	}
}

// SignShare returns the query parameters of a share link for id valid
// until expires.
func SignShare(key sialo.AppKey, id sialo.ObjectID, expires time.Time) url.Values {
	exp := expires.Unix()
	q := url.Values{}
	q.Set(ShareParamKey, key.PublicKeyHex())
	q.Set(ShareParamExpires, strconv.FormatInt(exp, 10))
	q.Set(ShareParamSignature, hex.EncodeToString(key.Sign(ShareSigningMessage(id, exp))))
	return q
}

// SignatureVerifier checks signed requests and share links. It is used by
// indexer implementations, including the in-memory one in indexdtest.
type SignatureVerifier struct {
	MaxSkew time.Duration
	// KeyLookup reports whether a public key is registered. A nil lookup
	// accepts every well-formed signature.
	KeyLookup func(pub ed25519.PublicKey) bool
	Now       func() time.Time
}

// NewSignatureVerifier creates a verifier with DefaultMaxSkew.
func NewSignatureVerifier(lookup func(ed25519.PublicKey) bool) *SignatureVerifier {
	return &SignatureVerifier{
		MaxSkew:   DefaultMaxSkew,
		KeyLookup: lookup,
		Now:       time.Now,
	}
}

// Verify authenticates a request from its signature headers and returns
// the signer's public key.
func (v *SignatureVerifier) Verify(method, path string, headers http.Header) (ed25519.PublicKey, error) {
	keyHex := headers.Get(HeaderKey)
	tsStr := headers.Get(HeaderTimestamp)
	sigHex := headers.Get(HeaderSignature)
	if keyHex == "" || tsStr == "" || sigHex == "" {
		return nil, ErrMissingSignature
	}

	pub, sig, err := decodeKeyAndSignature(keyHex, sigHex)
	if err != nil {
		return nil, err
	}

	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}
	skew := v.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.MaxSkew {
		return nil, ErrStaleRequest
	}

	if !ed25519.Verify(pub, RequestSigningMessage(method, path, ts), sig) {
		return nil, ErrBadSignature
	}
	if v.KeyLookup != nil && !v.KeyLookup(pub) {
		return nil, ErrUnknownKey
	}
	return pub, nil
}

// VerifyShare authenticates a share link for id and returns the signer's
// public key. An expired link fails with ErrExpired.
func (v *SignatureVerifier) VerifyShare(id sialo.ObjectID, query url.Values) (ed25519.PublicKey, error) {
	keyHex := query.Get(ShareParamKey)
	expStr := query.Get(ShareParamExpires)
	sigHex := query.Get(ShareParamSignature)
	if keyHex == "" || expStr == "" || sigHex == "" {
		return nil, ErrMissingSignature
	}

	pub, sig, err := decodeKeyAndSignature(keyHex, sigHex)
	if err != nil {
		return nil, err
	}

	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse expires: %w", err)
	}
	if !ed25519.Verify(pub, ShareSigningMessage(id, exp), sig) {
		return nil, ErrBadSignature
	}
	if !v.now().Before(time.Unix(exp, 0)) {
		return nil, ErrExpired
	}
	if v.KeyLookup != nil && !v.KeyLookup(pub) {
		return nil, ErrUnknownKey
	}
	return pub, nil
}

func (v *SignatureVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func decodeKeyAndSignature(keyHex, sigHex string) (ed25519.PublicKey, []byte, error) {
	pub, err := hex.DecodeString(keyHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, nil, fmt.Errorf("decode key: %w", ErrBadSignature)
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, nil, fmt.Errorf("decode signature: %w", ErrBadSignature)
	}
	return pub, sig, nil
}
