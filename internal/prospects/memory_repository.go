package prospects

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemoryRepository is a Repository backed by a map, used in tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Prospect
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1, rows: make(map[int64]Prospect)}
}

func (r *InMemoryRepository) Get(ctx context.Context, id int64) (*Prospect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, ErrProspectNotFound
	}
	return &p, nil
}

func (r *InMemoryRepository) List(ctx context.Context, offset, limit int) ([]Prospect, error) {
	if limit <= 0 {
		limit = 50
	}
	all := r.sorted()
	if offset >= len(all) {
		return []Prospect{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *InMemoryRepository) Search(ctx context.Context, q SearchQuery) ([]Prospect, error) {
	if q.empty() {
		return []Prospect{}, nil
	}
	out := []Prospect{}
	for _, p := range r.sorted() {
		if containsFold(p.FullName, q.Name) && containsFold(p.Company, q.Company) && containsFold(p.Location, q.Location) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) GetByCanonicalURL(ctx context.Context, canonicalURL string) (*Prospect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if p.CanonicalURL == canonicalURL {
			out := p
			return &out, nil
		}
	}
	return nil, ErrProspectNotFound
}

func (r *InMemoryRepository) SearchByUsername(ctx context.Context, username string) ([]Prospect, error) {
	if username == "" {
		return []Prospect{}, nil
	}
	out := []Prospect{}
	for _, p := range r.sorted() {
		if containsFold(p.LinkedInURL, username) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, p *Prospect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.rows[p.ID] = *p
	return nil
}

func (r *InMemoryRepository) Update(ctx context.Context, p *Prospect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ID]; !ok {
		return ErrProspectNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	r.rows[p.ID] = *p
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *InMemoryRepository) sorted() []Prospect {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Prospect, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
