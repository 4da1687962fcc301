package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
)

// memStore хранит документы в памяти.
type memStore struct {
	mu       sync.Mutex
	data     map[string]map[string]map[string]any
	seq      int
	listErr  error
	getErr   error
	writeErr error
	lists    atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]map[string]map[string]any)}
}

func (s *memStore) put(collection, id string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]map[string]any)
	}
	s.data[collection][id] = fields
}

func (s *memStore) fields(collection, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.data[collection][id]
	return f, ok
}

func (s *memStore) List(_ context.Context, collection string) ([]domain.Document, error) {
	s.lists.Add(1)
	if s.listErr != nil {
		return nil, s.listErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.data[collection]))
	for id := range s.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, domain.Document{ID: id, Fields: s.data[collection][id]})
	}
	return docs, nil
}

func (s *memStore) Get(_ context.Context, collection, id string) (*domain.Document, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	f, ok := s.fields(collection, id)
	if !ok {
		return nil, e.ErrDocumentNotFound
	}
	return &domain.Document{ID: id, Fields: f}, nil
}

func (s *memStore) Add(_ context.Context, collection string, fields map[string]any) (string, error) {
	if s.writeErr != nil {
		return "", s.writeErr
	}
	s.mu.Lock()
	s.seq++
	id := fmt.Sprintf("doc-%d", s.seq)
	s.mu.Unlock()

	s.put(collection, id, fields)
	return id, nil
}

func (s *memStore) Set(_ context.Context, collection, id string, fields map[string]any, merge bool) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	if merge {
		if cur, ok := s.fields(collection, id); ok {
			merged := make(map[string]any, len(cur)+len(fields))
			for k, v := range cur {
				merged[k] = v
			}
			for k, v := range fields {
				merged[k] = v
			}
			fields = merged
		}
	}
	s.put(collection, id, fields)
	return nil
}

func (s *memStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	if _, ok := s.fields(collection, id); !ok {
		return e.ErrDocumentNotFound
	}
	return s.Set(ctx, collection, id, fields, true)
}

func (s *memStore) Delete(_ context.Context, collection, id string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], id)
	return nil
}

type fakeEndpoint struct {
	products []domain.Product
	err      error
	calls    atomic.Int32
}

func (f *fakeEndpoint) FetchProducts(context.Context) ([]domain.Product, error) {
	f.calls.Add(1)
	return f.products, f.err
}

// memSlot: слот корзины в памяти.
type memSlot struct {
	mu       sync.Mutex
	values   map[string]string
	getErr   error
	failSets int // сколько первых записей завершатся ошибкой
	sets     int
}

func newMemSlot() *memSlot {
	return &memSlot{values: make(map[string]string)}
}

func (s *memSlot) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memSlot) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.sets <= s.failSets {
		return errors.New("slot unavailable")
	}
	s.values[key] = value
	return nil
}

type countRecord struct {
	sessionID string
	count     int
}

type recordingNotifier struct {
	mu      sync.Mutex
	records []countRecord
}

func (n *recordingNotifier) PublishCount(_ context.Context, sessionID string, count int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, countRecord{sessionID: sessionID, count: count})
	return nil
}

func (n *recordingNotifier) last() (countRecord, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.records) == 0 {
		return countRecord{}, false
	}
	return n.records[len(n.records)-1], true
}

// stubCatalog отдаёт фиксированный набор товаров.
type stubCatalog struct {
	products    []domain.Product
	invalidated atomic.Int32
}

func (c *stubCatalog) LoadCatalog(context.Context) []domain.Product { return c.products }

func (c *stubCatalog) FindProduct(_ context.Context, id any) (domain.Product, bool) {
	want := domain.NormalizeID(id)
	for _, p := range c.products {
		if p.ID == want {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (c *stubCatalog) NewArrivals(context.Context, int) []domain.Product { return nil }

func (c *stubCatalog) Invalidate() { c.invalidated.Add(1) }

type fakeIDP struct {
	signIn func(email, password string) (*Identity, error)
	signUp func(email, password, name string) (*Identity, error)
	lookup func(token string) (*Identity, error)
}

func (f *fakeIDP) SignIn(_ context.Context, email, password string) (*Identity, error) {
	return f.signIn(email, password)
}

func (f *fakeIDP) SignUp(_ context.Context, email, password, name string) (*Identity, error) {
	return f.signUp(email, password, name)
}

func (f *fakeIDP) Lookup(_ context.Context, token string) (*Identity, error) {
	return f.lookup(token)
}

type fakeImages struct {
	mu       sync.Mutex
	uploaded []*UploadImageReq
	cleaned  []string
	err      error
}

func (f *fakeImages) UploadImage(_ context.Context, req *UploadImageReq) (*UploadImageRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.uploaded = append(f.uploaded, req)
	key := fmt.Sprintf("img-%d", len(f.uploaded))
	return NewUploadImageRes(key, "http://cdn/"+key), nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, keys...)
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []*OutboxEvent
	err    error
}

func (f *fakeOutbox) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	event.ID = int64(len(f.events) + 1)
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeOutbox) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkAsProcessed(context.Context, int64) error { return nil }

func (f *fakeOutbox) MarkAsPending(context.Context, int64) error { return nil }

// inlineTx выполняет fn без транзакции.
type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
