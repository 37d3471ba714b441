package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/models"
)

// Memory implements Stores in process. It backs the engine tests and local
// development without Postgres. WithinTx snapshots state and restores it on
// error, mirroring transaction rollback.
type Memory struct {
	mu *sync.Mutex // nil on transaction-bound views
	st *memState
}

type memState struct {
	orders   map[uuid.UUID]models.Order
	disputes map[uuid.UUID]models.Dispute
	listings map[uuid.UUID]models.Listing
	profiles map[uuid.UUID]models.Profile
	audit    []models.AuditLog
}

func NewMemory() *Memory {
	return &Memory{
		mu: &sync.Mutex{},
		st: &memState{
			orders:   make(map[uuid.UUID]models.Order),
			disputes: make(map[uuid.UUID]models.Dispute),
			listings: make(map[uuid.UUID]models.Listing),
			profiles: make(map[uuid.UUID]models.Profile),
		},
	}
}

func (m *Memory) Orders() OrderStore     { return memOrders{m} }
func (m *Memory) Disputes() DisputeStore { return memDisputes{m} }
func (m *Memory) Listings() ListingStore { return memListings{m} }
func (m *Memory) Profiles() ProfileStore { return memProfiles{m} }
func (m *Memory) Audit() AuditStore      { return memAudit{m} }

func (m *Memory) WithinTx(_ context.Context, fn func(tx Stores) error) error {
	if m.mu == nil {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.st.clone()
	if err := fn(&Memory{st: m.st}); err != nil {
		*m.st = *snap
		return err
	}
	return nil
}

func (m *Memory) do(fn func(st *memState) error) error {
	if m.mu != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return fn(m.st)
}

func (s *memState) clone() *memState {
	c := &memState{
		orders:   make(map[uuid.UUID]models.Order, len(s.orders)),
		disputes: make(map[uuid.UUID]models.Dispute, len(s.disputes)),
		listings: make(map[uuid.UUID]models.Listing, len(s.listings)),
		profiles: make(map[uuid.UUID]models.Profile, len(s.profiles)),
		audit:    append([]models.AuditLog(nil), s.audit...),
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return c
}

// ---- orders ----

type memOrders struct{ m *Memory }

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	return r.m.do(func(st *memState) error {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		now := time.Now()
		o.CreatedAt = now
		o.UpdatedAt = now
		st.orders[o.ID] = *o
		return nil
	})
}

func (r memOrders) Get(_ context.Context, id uuid.UUID) (*models.Order, error) {
	var out *models.Order
	err := r.m.do(func(st *memState) error {
		o, ok := st.orders[id]
		if !ok {
			return ErrNotFound
		}
		out = &o
		return nil
	})
	return out, err
}

func (r memOrders) CompareAndSetStatus(_ context.Context, id uuid.UUID, expected, next string) (bool, error) {
	var swapped bool
	err := r.m.do(func(st *memState) error {
		o, ok := st.orders[id]
		if !ok || o.Status != expected {
			return nil
		}
		o.Status = next
		o.UpdatedAt = time.Now()
		st.orders[id] = o
		swapped = true
		return nil
	})
	return swapped, err
}

func (r memOrders) ListByUser(_ context.Context, userID uuid.UUID, f OrderFilter) ([]models.OrderWithListing, error) {
	var out []models.OrderWithListing
	err := r.m.do(func(st *memState) error {
		for _, o := range st.orders {
			if o.BuyerID != userID && o.SellerID != userID {
				continue
			}
			if f.Status != nil && o.Status != *f.Status {
				continue
			}
			out = append(out, models.OrderWithListing{Order: o})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

// ---- disputes ----

type memDisputes struct{ m *Memory }

func (r memDisputes) Insert(_ context.Context, d *models.Dispute) error {
	return r.m.do(func(st *memState) error {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		now := time.Now()
		d.CreatedAt = now
		d.UpdatedAt = now
		st.disputes[d.ID] = *d
		return nil
	})
}

func (r memDisputes) Get(_ context.Context, id uuid.UUID) (*models.Dispute, error) {
	var out *models.Dispute
	err := r.m.do(func(st *memState) error {
		d, ok := st.disputes[id]
		if !ok {
			return ErrNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r memDisputes) FindActiveByOrder(_ context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	var out *models.Dispute
	err := r.m.do(func(st *memState) error {
		for _, d := range st.disputes {
			if d.OrderID == orderID && d.IsActive() {
				dd := d
				out = &dd
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r memDisputes) CompareAndSetStatus(_ context.Context, id uuid.UUID, expected, next string, resolvedBy *uuid.UUID) (bool, error) {
	var swapped bool
	err := r.m.do(func(st *memState) error {
		d, ok := st.disputes[id]
		if !ok || d.Status != expected {
			return nil
		}
		d.Status = next
		if resolvedBy != nil {
			d.ResolvedBy = resolvedBy
			now := time.Now()
			d.ResolvedAt = &now
		}
		d.UpdatedAt = time.Now()
		st.disputes[id] = d
		swapped = true
		return nil
	})
	return swapped, err
}

func (r memDisputes) List(_ context.Context, f DisputeFilter) ([]models.Dispute, error) {
	var out []models.Dispute
	err := r.m.do(func(st *memState) error {
		for _, d := range st.disputes {
			if f.Status != nil && d.Status != *f.Status {
				continue
			}
			if f.ComplainantID != nil && d.ComplainantID != *f.ComplainantID {
				continue
			}
			out = append(out, d)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

// ---- listings ----

type memListings struct{ m *Memory }

func (r memListings) Create(_ context.Context, l *models.Listing) error {
	return r.m.do(func(st *memState) error {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		now := time.Now()
		l.CreatedAt = now
		l.UpdatedAt = now
		st.listings[l.ID] = *l
		return nil
	})
}

func (r memListings) Get(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	var out *models.Listing
	err := r.m.do(func(st *memState) error {
		l, ok := st.listings[id]
		if !ok {
			return ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (r memListings) Update(_ context.Context, l *models.Listing) error {
	return r.m.do(func(st *memState) error {
		if _, ok := st.listings[l.ID]; !ok {
			return ErrNotFound
		}
		l.UpdatedAt = time.Now()
		st.listings[l.ID] = *l
		return nil
	})
}

func (r memListings) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	return r.m.do(func(st *memState) error {
		l, ok := st.listings[id]
		if !ok {
			return ErrNotFound
		}
		l.Status = status
		l.UpdatedAt = time.Now()
		st.listings[id] = l
		return nil
	})
}

func (r memListings) Search(_ context.Context, f ListingFilter) ([]models.Listing, error) {
	var out []models.Listing
	err := r.m.do(func(st *memState) error {
		for _, l := range st.listings {
			if f.SellerID != nil && l.SellerID != *f.SellerID {
				continue
			}
			if f.Category != nil && l.Category != *f.Category {
				continue
			}
			if f.Status != nil && l.Status != *f.Status {
				continue
			}
			if f.Query != nil && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(*f.Query)) {
				continue
			}
			out = append(out, l)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

// ---- profiles ----

type memProfiles struct{ m *Memory }

func (r memProfiles) Create(_ context.Context, p *models.Profile) error {
	return r.m.do(func(st *memState) error {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		now := time.Now()
		p.CreatedAt = now
		p.UpdatedAt = now
		st.profiles[p.ID] = *p
		return nil
	})
}

func (r memProfiles) Get(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	var out *models.Profile
	err := r.m.do(func(st *memState) error {
		p, ok := st.profiles[id]
		if !ok {
			return ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r memProfiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	var out *models.Profile
	err := r.m.do(func(st *memState) error {
		for _, p := range st.profiles {
			if p.Email == email {
				pp := p
				out = &pp
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (r memProfiles) Update(_ context.Context, p *models.Profile) error {
	return r.m.do(func(st *memState) error {
		if _, ok := st.profiles[p.ID]; !ok {
			return ErrNotFound
		}
		p.UpdatedAt = time.Now()
		st.profiles[p.ID] = *p
		return nil
	})
}

// ---- audit ----

type memAudit struct{ m *Memory }

func (r memAudit) Append(_ context.Context, entry *models.AuditLog) error {
	return r.m.do(func(st *memState) error {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		entry.CreatedAt = time.Now()
		st.audit = append(st.audit, *entry)
		return nil
	})
}

func (r memAudit) ListByTarget(_ context.Context, targetID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.AuditLog
	err := r.m.do(func(st *memState) error {
		for i := len(st.audit) - 1; i >= 0; i-- {
			e := st.audit[i]
			if e.TargetID == nil || *e.TargetID != targetID {
				continue
			}
			out = append(out, e)
		}
		if offset > len(out) {
			offset = len(out)
		}
		out = out[offset:]
		if len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}
