// Package indexdtest provides an in-memory indexer for tests.
//
// The server speaks the same HTTP API as a real indexer: the connect,
// approve and register handshake, signed shard and object endpoints, and
// share links. Approval happens when something requests the response URL
// handed out by POST /auth/connect, which is what an operator would do in
// a browser.
//
//	srv := indexdtest.NewServer()
//	defer srv.Close()
//
//	b, _ := indexd.NewBuilder(srv.URL)
package indexdtest

import (
	"crypto/ed25519"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/indexd"
)

type connectRequest struct {
	app    sialo.RegistrationRequest
	status string
	token  string
	polls  int
}

type appState struct {
	appID   sialo.ObjectID
	objects map[sialo.ObjectID]indexd.Object
	events  []indexd.ObjectEvent
}

// Server is an in-memory indexer backed by an httptest.Server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	now      func() time.Time
	requests map[string]*connectRequest
	apps     map[string]*appState // keyed by public key hex
	shards   map[sialo.ObjectID][]byte
	shardPut int
	verifier *indexd.SignatureVerifier
}

// NewServer starts an in-memory indexer. Call Close when done.
func NewServer() *Server {
	s := newServer()
	s.Server = httptest.NewServer(s.router())
	return s
}

// NewTLSServer starts an in-memory indexer serving https with a self-signed
// certificate. TLSConfig returns a client configuration that trusts it.
func NewTLSServer() *Server {
	s := newServer()
	s.Server = httptest.NewTLSServer(s.router())
	return s
}

// TLSConfig returns a client TLS configuration trusting the server's
// certificate. It is nil for a plain http server.
func (s *Server) TLSConfig() *tls.Config {
	if s.Certificate() == nil {
		return nil
	}
	pool := x509.NewCertPool()
	pool.AddCert(s.Certificate())
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
}

func newServer() *Server {
	s := &Server{
		now:      time.Now,
		requests: make(map[string]*connectRequest),
		apps:     make(map[string]*appState),
		shards:   make(map[sialo.ObjectID][]byte),
	}
	s.verifier = indexd.NewSignatureVerifier(s.isRegistered)
	s.verifier.Now = func() time.Time { return s.clock() }
	return s
}

// SetClock replaces the server's time source, used to verify request
// timestamps and share link expiry.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Server) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

func (s *Server) isRegistered(pub ed25519.PublicKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.apps[hex.EncodeToString(pub)]
	return ok
}

// RegisterKey registers key directly, skipping the handshake.
func (s *Server) RegisterKey(key sialo.AppKey, appID sialo.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[key.PublicKeyHex()] = newAppState(appID)
}

func newAppState(appID sialo.ObjectID) *appState {
	return &appState{
		appID:   appID,
		objects: make(map[sialo.ObjectID]indexd.Object),
	}
}

// Approve approves a pending connection request by id.
func (s *Server) Approve(id string) bool {
	return s.decide(id, indexd.StatusApproved)
}

// Reject rejects a pending connection request by id.
func (s *Server) Reject(id string) bool {
	return s.decide(id, indexd.StatusRejected)
}

func (s *Server) decide(id, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.status != indexd.StatusPending {
		return false
	}
	req.status = status
	return true
}

// Polls returns how many times the status of request id was checked.
func (s *Server) Polls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req, ok := s.requests[id]; ok {
		return req.polls
	}
	return 0
}

// RequestIDs returns the ids of all connection requests received.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.requests))
	for id := range s.requests {
		ids = append(ids, id)
	}
	return ids
}

// IsRegistered reports whether key has completed registration.
func (s *Server) IsRegistered(key sialo.AppKey) bool {
	return s.isRegistered(key.PublicKey())
}

// ShardCount returns the number of shards stored.
func (s *Server) ShardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shards)
}

// ShardPuts returns the number of accepted shard uploads.
func (s *Server) ShardPuts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shardPut
}

// DropShard deletes a stored shard, simulating a lost host.
func (s *Server) DropShard(root sialo.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shards, root)
}

// CorruptShard flips a byte of a stored shard.
func (s *Server) CorruptShard(root sialo.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.shards[root]; ok && len(data) > 0 {
		data[0] ^= 0xff
	}
}

// Object returns a pinned object of key's app.
func (s *Server) Object(key sialo.AppKey, id sialo.ObjectID) (indexd.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[key.PublicKeyHex()]
	if !ok {
		return indexd.Object{}, false
	}
	obj, ok := app.objects[id]
	return obj, ok
}
