package indexdtest

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/indexd"
	"golang.org/x/crypto/blake2b"
)

type pubKeyCtx struct{}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Post("/auth/connect", s.handleConnect)
	r.Get("/auth/connect/{id}/status", s.handleStatus)
	r.Post("/auth/connect/{id}/register", s.handleRegister)
	r.Get("/approve/{id}", s.handleApprove)
	r.Get("/objects/{id}/shared", s.handleShared)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/auth/check", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		r.Put("/shards/{root}", s.handlePutShard)
		r.Get("/shards/{root}", s.handleGetShard)
		r.Post("/objects", s.handlePin)
		r.Get("/objects/events", s.handleEvents)
		r.Get("/objects/{id}", s.handleGetObject)
		r.Delete("/objects/{id}", s.handleDeleteObject)
		r.Post("/slabs/prune", s.handlePrune)
	})

	return r
}

// authMiddleware verifies the request signature and stores the signer's
// public key in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pub, err := s.verifier.Verify(r.Method, r.URL.Path, r.Header)
		if err != nil {
			handleError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), pubKeyCtx{}, hex.EncodeToString(pub))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func signer(r *http.Request) string {
	pub, _ := r.Context().Value(pubKeyCtx{}).(string)
	return pub
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req sialo.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, fmt.Errorf("%w: %v", indexd.ErrBadRequest, err))
		return
	}
	if err := req.Validate(); err != nil {
		handleError(w, fmt.Errorf("%w: %v", indexd.ErrBadRequest, err))
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.requests[id] = &connectRequest{app: req, status: indexd.StatusPending}
	expires := s.now().Add(time.Hour).UTC()
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, indexd.ConnectResponse{
		ResponseURL: s.URL + "/approve/" + id,
		StatusURL:   s.URL + "/auth/connect/" + id + "/status",
		RegisterURL: s.URL + "/auth/connect/" + id + "/register",
		Expiration:  expires,
	})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	if !s.Approve(chi.URLParam(r, "id")) {
		handleError(w, fmt.Errorf("connection request: %w", indexd.ErrNotFound))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "approved\n")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	req, ok := s.requests[chi.URLParam(r, "id")]
	if !ok {
		s.mu.Unlock()
		handleError(w, fmt.Errorf("connection request: %w", indexd.ErrNotFound))
		return
	}
	req.polls++
	if req.status == indexd.StatusApproved && req.token == "" {
		req.token = uuid.NewString()
	}
	resp := indexd.StatusResponse{Status: req.status}
	if req.status == indexd.StatusApproved {
		resp.Token = req.token
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body indexd.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handleError(w, fmt.Errorf("%w: %v", indexd.ErrBadRequest, err))
		return
	}

	pub, err := hex.DecodeString(body.AppKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		handleError(w, fmt.Errorf("app key: %w", indexd.ErrBadRequest))
		return
	}
	sig, err := hex.DecodeString(body.Signature)
	if err != nil || !ed25519.Verify(pub, []byte(body.Token), sig) {
		handleError(w, fmt.Errorf("register: %w", indexd.ErrBadSignature))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[chi.URLParam(r, "id")]
	if !ok {
		handleError(w, fmt.Errorf("connection request: %w", indexd.ErrNotFound))
		return
	}
	if req.status != indexd.StatusApproved || req.token == "" || req.token != body.Token {
		handleError(w, fmt.Errorf("register: %w", indexd.ErrUnknownKey))
		return
	}
	if _, exists := s.apps[body.AppKey]; !exists {
		s.apps[body.AppKey] = newAppState(req.app.AppID)
	}
	req.token = ""
	w.WriteHeader(http.StatusNoContent)
}

func parseRoot(w http.ResponseWriter, r *http.Request, param string) (sialo.ObjectID, bool) {
	id, err := sialo.ParseObjectID(chi.URLParam(r, param))
	if err != nil {
		handleError(w, fmt.Errorf("%w: %v", indexd.ErrBadRequest, err))
		return id, false
	}
	return id, true
}

func (s *Server) handlePutShard(w http.ResponseWriter, r *http.Request) {
	root, ok := parseRoot(w, r, "root")
	if !ok {
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		handleError(w, fmt.Errorf("%w: %v", indexd.ErrBadRequest, err))
		return
	}
	if sialo.ObjectID(blake2b.Sum256(data)) != root {
		handleError(w, fmt.Errorf("shard root mismatch: %w", indexd.ErrBadRequest))
		return
	}

	s.mu.Lock()
	s.shards[root] = data
	s.shardPut++
	s.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetShard(w http.ResponseWriter, r *http.Request) {
	root, ok := parseRoot(w, r, "root")
	if !ok {
		return
	}
	s.mu.Lock()
	data, found := s.shards[root]
	if found {
		data = append([]byte(nil), data...)
	}
	s.mu.Unlock()
	if !found {
		handleError(w, fmt.Errorf("shard %s: %w", root, indexd.ErrNotFound))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	var obj indexd.Object
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
		handleError(w, fmt.Errorf("%w: %v", indexd.ErrBadRequest, err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slab := range obj.Slabs {
		for _, sh := range slab.Shards {
			if _, ok := s.shards[sh.Root]; !ok {
				handleError(w, fmt.Errorf("pin: shard %s: %w", sh.Root, indexd.ErrNotFound))
				return
			}
		}
	}
	app := s.apps[signer(r)]
	app.objects[obj.ID] = obj
	app.events = append(app.events, indexd.ObjectEvent{ID: obj.ID, UpdatedAt: s.now().UTC()})
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRoot(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	obj, found := s.apps[signer(r)].objects[id]
	s.mu.Unlock()
	if !found {
		handleError(w, fmt.Errorf("object %s: %w", id, indexd.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (s *Server) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRoot(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	app := s.apps[signer(r)]
	if _, found := app.objects[id]; !found {
		handleError(w, fmt.Errorf("object %s: %w", id, indexd.ErrNotFound))
		return
	}
	delete(app.objects, id)
	app.events = append(app.events, indexd.ObjectEvent{ID: id, Deleted: true, UpdatedAt: s.now().UTC()})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if c := r.URL.Query().Get("cursor"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 0 {
			handleError(w, fmt.Errorf("cursor: %w", indexd.ErrBadRequest))
			return
		}
		offset = n
	}
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = max(1, min(1000, parsed))
		}
	}

	s.mu.Lock()
	events := s.apps[signer(r)].events
	var page indexd.ObjectEventsResponse
	if offset < len(events) {
		end := min(offset+limit, len(events))
		page.Events = append([]indexd.ObjectEvent(nil), events[offset:end]...)
		if end < len(events) {
			page.NextCursor = strconv.Itoa(end)
		}
	}
	s.mu.Unlock()

	if page.Events == nil {
		page.Events = []indexd.ObjectEvent{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handlePrune(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	referenced := make(map[sialo.ObjectID]struct{})
	for _, app := range s.apps {
		for _, obj := range app.objects {
			for _, slab := range obj.Slabs {
				for _, sh := range slab.Shards {
					referenced[sh.Root] = struct{}{}
				}
			}
		}
	}

	pruned := 0
	for root := range s.shards {
		if _, ok := referenced[root]; !ok {
			delete(s.shards, root)
			pruned++
		}
	}

	writeJSON(w, http.StatusOK, indexd.PruneResponse{Pruned: pruned})
}

func (s *Server) handleShared(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRoot(w, r, "id")
	if !ok {
		return
	}
	pub, err := s.verifier.VerifyShare(id, r.URL.Query())
	if err != nil {
		handleError(w, err)
		return
	}

	s.mu.Lock()
	app, found := s.apps[hex.EncodeToString(pub)]
	var obj indexd.Object
	if found {
		obj, found = app.objects[id]
	}
	s.mu.Unlock()
	if !found {
		handleError(w, fmt.Errorf("object %s: %w", id, indexd.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, obj)
}
