// Package drafts persists exported posts in a [store.Store].
//
// A draft is the JSON encoding of a [post.Export] kept under the key
// "draft:<id>". Drafts expire after the service TTL unless it is zero.
package drafts

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/observability"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/store"
)

// Namespace prefixes every draft key.
const Namespace = "draft"

// DefaultTTL is how long a draft is kept.
const DefaultTTL = 30 * 24 * time.Hour

// Service saves and loads drafts.
type Service struct {
	store store.Store
	ttl   time.Duration
	hooks observability.StoreHooks
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets the draft lifetime. Zero keeps drafts forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithHooks sets the hooks receiving save and load events.
func WithHooks(h observability.StoreHooks) Option {
	return func(s *Service) { s.hooks = observability.StoreOrNoop(h) }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) {
		if f != nil {
			s.newID = f
		}
	}
}

// New returns a service over st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		ttl:   DefaultTTL,
		hooks: observability.NoopStoreHooks{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the store key of a draft.
func Key(id string) string { return store.Key(Namespace, id) }

// Save stores e under a new id and returns it.
func (s *Service) Save(ctx context.Context, e post.Export) (string, error) {
	id := s.newID()
	return id, s.Put(ctx, id, e)
}

// Put stores e under id, replacing any previous draft.
func (s *Service) Put(ctx context.Context, id string, e post.Export) error {
	if err := errors.ValidateID(id); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode draft %s", id)
	}
	key := Key(id)
	err = s.store.Set(ctx, key, data, s.ttl)
	s.hooks.OnSave(ctx, key, len(data), err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save draft %s", id)
	}
	return nil
}

// Load returns the draft called id.
func (s *Service) Load(ctx context.Context, id string) (post.Export, error) {
	key := Key(id)
	data, ok, err := s.store.Get(ctx, key)
	s.hooks.OnLoad(ctx, key, ok, err)
	if err != nil {
		return post.Export{}, errors.Wrap(errors.ErrCodeInternal, err, "load draft %s", id)
	}
	if !ok {
		return post.Export{}, errors.New(errors.ErrCodeDraftNotFound, "draft %q not found", id)
	}
	var e post.Export
	if err := json.Unmarshal(data, &e); err != nil {
		return post.Export{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode draft %s", id)
	}
	return e, nil
}

// Open loads the draft called id as a document laid out at width.
func (s *Service) Open(ctx context.Context, id string, width float64) (*post.Schema, error) {
	e, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return post.FromExport(e, width)
}

// Delete removes the draft called id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, Key(id)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete draft %s", id)
	}
	return nil
}

// List returns the ids of the stored drafts. It fails with UNSUPPORTED when
// the backend cannot enumerate keys.
func (s *Service) List(ctx context.Context) ([]string, error) {
	l, ok := s.store.(store.Lister)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "store cannot list drafts")
	}
	prefix := Key("")
	keys, err := l.Keys(ctx, prefix)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list drafts")
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, prefix)
	}
	return ids, nil
}

// Purge removes expired drafts when the backend needs it, returning how
// many were removed.
func (s *Service) Purge(ctx context.Context) (int, error) {
	p, ok := s.store.(store.Purger)
	if !ok {
		return 0, nil
	}
	return p.Purge(ctx)
}
