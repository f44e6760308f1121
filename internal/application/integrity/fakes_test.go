package integrity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/shared"
)

type memProducts struct {
	mu       sync.Mutex
	items    map[uuid.UUID]catalog.Product
	order    []uuid.UUID
	failSave map[uuid.UUID]bool
}

func newMemProducts(products ...*catalog.Product) *memProducts {
	r := &memProducts{items: map[uuid.UUID]catalog.Product{}, failSave: map[uuid.UUID]bool{}}
	for _, p := range products {
		r.items[p.ID] = *p
		r.order = append(r.order, p.ID)
	}
	return r
}

func (r *memProducts) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, err := r.FindByID(ctx, id); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProducts) FindAll(_ context.Context) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *memProducts) List(ctx context.Context, _ shared.Filter) ([]catalog.Product, int64, error) {
	all, _ := r.FindAll(ctx)
	return all, int64(len(all)), nil
}

func (r *memProducts) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memProducts) Save(_ context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave[p.ID] {
		return errors.New("write failed")
	}
	if _, ok := r.items[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.items[p.ID] = *p
	return nil
}

func (r *memProducts) get(id uuid.UUID) catalog.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

type memUnits struct {
	mu    sync.Mutex
	items map[uuid.UUID]catalog.ProductUnit
	order []uuid.UUID
}

func newMemUnits(units ...*catalog.ProductUnit) *memUnits {
	r := &memUnits{items: map[uuid.UUID]catalog.ProductUnit{}}
	for _, u := range units {
		r.items[u.ID] = *u
		r.order = append(r.order, u.ID)
	}
	return r
}

func (r *memUnits) FindByID(_ context.Context, id uuid.UUID) (*catalog.ProductUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r *memUnits) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.ProductUnit, error) {
	out := make([]catalog.ProductUnit, 0, len(ids))
	for _, id := range ids {
		if u, err := r.FindByID(ctx, id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUnits) FindByProductID(ctx context.Context, productID uuid.UUID) ([]catalog.ProductUnit, error) {
	all, _ := r.FindAll(ctx)
	out := make([]catalog.ProductUnit, 0)
	for _, u := range all {
		if u.ProductID == productID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUnits) FindAll(_ context.Context) ([]catalog.ProductUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.ProductUnit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *memUnits) FindExistingSerials(_ context.Context, serials []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0)
	for _, s := range serials {
		for _, u := range r.items {
			if u.SerialNumber == s {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (r *memUnits) Save(_ context.Context, u *catalog.ProductUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[u.ID]; !ok {
		r.order = append(r.order, u.ID)
	}
	r.items[u.ID] = *u
	return nil
}

func (r *memUnits) SaveBatch(ctx context.Context, units []*catalog.ProductUnit) error {
	for _, u := range units {
		_ = r.Save(ctx, u)
	}
	return nil
}

func (r *memUnits) get(id uuid.UUID) catalog.ProductUnit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

// memRegistry stands in for both the registry lookup and the barcode service.
type memRegistry struct {
	mu       sync.Mutex
	byEntity map[uuid.UUID]string
	next     int64
	fail     map[uuid.UUID]bool
}

func newMemRegistry() *memRegistry {
	return &memRegistry{byEntity: map[uuid.UUID]string{}, next: 1000, fail: map[uuid.UUID]bool{}}
}

func (r *memRegistry) register(id uuid.UUID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEntity[id] = code
}

func (r *memRegistry) FindRegisteredEntityIDs(_ context.Context, _ barcode.EntityType, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]bool{}
	for _, id := range ids {
		if _, ok := r.byEntity[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *memRegistry) EnsureBarcode(_ context.Context, _ barcode.EntityType, id uuid.UUID, t barcode.BarcodeType) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[id] {
		return "", fmt.Errorf("allocate: %w", barcode.ErrCounterExhausted)
	}
	if code, ok := r.byEntity[id]; ok {
		return code, nil
	}
	code, err := barcode.Compose(barcode.DefaultPrefix, t, r.next)
	if err != nil {
		return "", err
	}
	r.next++
	r.byEntity[id] = code
	return code, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
