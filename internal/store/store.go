// Package store owns the three in-memory collections of the relay: tracked
// orders, cancellation records and second-platform events. Persistence is
// deliberately absent; the POS drains everything via polling and data loss
// on restart is accepted.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"posbridge/internal/model"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	mu            sync.RWMutex
	orders        map[string]*model.TrackedOrder
	cancellations map[string]model.CancellationRecord
	events        []model.InboundEvent
}

func New() *Store {
	return &Store{
		orders:        make(map[string]*model.TrackedOrder),
		cancellations: make(map[string]model.CancellationRecord),
	}
}

// OrderView is what the polling API returns per order: the canonical order
// plus the storage key the POS must use to acknowledge it.
type OrderView struct {
	model.CanonicalOrder
	StorageKey string    `json:"_railwayKey"`
	CreatedAt  time.Time `json:"CreatedAt"`
}

// Put tracks an order as NEW. A replayed token overwrites the existing entry
// and silently resets its status; upstream redelivers dispatches and the
// last one wins.
func (s *Store) Put(token string, order model.CanonicalOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[token] = &model.TrackedOrder{
		Order:            order,
		Status:           model.StatusNew,
		CreatedAt:        time.Now(),
		StatusTimestamps: make(map[string]time.Time),
	}
}

func (s *Store) Get(token string) (model.TrackedOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[token]
	if !ok {
		return model.TrackedOrder{}, false
	}
	return copyTracked(o), true
}

func (s *Store) Has(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.orders[token]
	return ok
}

// SetStatus transitions an order and records when the transition happened.
// An absent token is a no-op; repeating an identical transition leaves the
// entry untouched, including its timestamps.
func (s *Store) SetStatus(token string, status model.OrderStatus, timestampField string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[token]
	if !ok || o.Status == status {
		return
	}
	o.Status = status
	o.StatusTimestamps[timestampField] = time.Now()
}

// RecordCancelReason annotates an already-tracked order with the platform's
// cancellation reason. Absent tokens are ignored.
func (s *Store) RecordCancelReason(token, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.orders[token]; ok {
		o.CancelReason = reason
	}
}

// ListByStatus returns order views in a given status, oldest first. When
// since is set, only orders tracked at or after it are included ("today
// only" polling mode).
func (s *Store) ListByStatus(status model.OrderStatus, since *time.Time) []OrderView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]OrderView, 0)
	for key, o := range s.orders {
		if o.Status != status {
			continue
		}
		if since != nil && o.CreatedAt.Before(*since) {
			continue
		}
		views = append(views, OrderView{
			CanonicalOrder: o.Order,
			StorageKey:     key,
			CreatedAt:      o.CreatedAt,
		})
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

func (s *Store) DeleteByToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[token]; !ok {
		return ErrNotFound
	}
	delete(s.orders, token)
	return nil
}

// DeleteByOrderIDOrToken removes an order by storage key first and falls
// back to scanning for a matching OrderId or OrderToken, since external
// systems may reference either. Returns which lookup matched.
func (s *Store) DeleteByOrderIDOrToken(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; ok {
		delete(s.orders, id)
		return "key", nil
	}

	for key, o := range s.orders {
		if o.Order.OrderID == id || o.Order.OrderToken == id {
			delete(s.orders, key)
			return "orderId", nil
		}
	}
	return "", ErrNotFound
}

func (s *Store) AddCancellation(rec model.CancellationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancellations[rec.ID] = rec
}

func (s *Store) ListCancellations() []model.CancellationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.CancellationRecord, 0, len(s.cancellations))
	for _, rec := range s.cancellations {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records
}

func (s *Store) DeleteCancellation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cancellations[id]; !ok {
		return ErrNotFound
	}
	delete(s.cancellations, id)
	return nil
}

func (s *Store) AppendEvent(ev model.InboundEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
}

// ListEvents returns inbound events in arrival order, optionally filtered by
// the per-restaurant secret key each event carries.
func (s *Store) ListEvents(secretKey string) []model.InboundEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.InboundEvent, 0, len(s.events))
	for _, ev := range s.events {
		if secretKey != "" && ev.RestaurantSecretKey != secretKey {
			continue
		}
		events = append(events, ev)
	}
	return events
}

func (s *Store) DeleteEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ev := range s.events {
		if ev.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Sweep evicts every record created before the cutoff from all three
// collections and reports how many were removed from each.
func (s *Store) Sweep(cutoff time.Time) (orders, cancellations, events int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, o := range s.orders {
		if o.CreatedAt.Before(cutoff) {
			delete(s.orders, key)
			orders++
		}
	}
	for id, rec := range s.cancellations {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.cancellations, id)
			cancellations++
		}
	}

	kept := s.events[:0]
	for _, ev := range s.events {
		if ev.Timestamp.Before(cutoff) {
			events++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept

	return orders, cancellations, events
}

func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func (s *Store) CancellationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cancellations)
}

func (s *Store) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *Store) CountsByStatus() map[model.OrderStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.OrderStatus]int)
	for _, o := range s.orders {
		counts[o.Status]++
	}
	return counts
}

func copyTracked(o *model.TrackedOrder) model.TrackedOrder {
	c := *o
	c.StatusTimestamps = make(map[string]time.Time, len(o.StatusTimestamps))
	for k, v := range o.StatusTimestamps {
		c.StatusTimestamps[k] = v
	}
	return c
}
