// Package memory хранит правила и бронирования в памяти процесса.
// Используется при STORAGE=memory и в тестах сервисов.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/google/uuid"
)

type RuleStore struct {
	mu    sync.RWMutex
	order []uuid.UUID
	rules map[uuid.UUID]*model.AvailabilityRule
}

func NewRuleStore() *RuleStore {
	return &RuleStore{rules: make(map[uuid.UUID]*model.AvailabilityRule)}
}

// Create сохраняет правило. guard видит активные правила юриста под той же
// блокировкой, что и вставка.
func (s *RuleStore) Create(_ context.Context, rule *model.AvailabilityRule, guard repository.RuleGuard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(rule.LawyerID, guard); err != nil {
		return err
	}

	now := time.Now()
	rule.CreatedAt, rule.UpdatedAt = now, now
	s.rules[rule.ID] = cloneRule(rule)
	s.order = append(s.order, rule.ID)
	return nil
}

func (s *RuleStore) GetByID(_ context.Context, id uuid.UUID) (*model.AvailabilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	if !ok {
		return nil, nil
	}
	return cloneRule(rule), nil
}

func (s *RuleStore) GetByLawyerID(_ context.Context, lawyerID uuid.UUID) ([]*model.AvailabilityRule, error) {
	return s.filter(func(r *model.AvailabilityRule) bool { return r.LawyerID == lawyerID }), nil
}

func (s *RuleStore) GetActiveByLawyerID(_ context.Context, lawyerID uuid.UUID) ([]*model.AvailabilityRule, error) {
	return s.filter(func(r *model.AvailabilityRule) bool { return r.LawyerID == lawyerID && r.IsActive }), nil
}

func (s *RuleStore) Update(_ context.Context, rule *model.AvailabilityRule, guard repository.RuleGuard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rules[rule.ID]
	if !ok {
		return repository.ErrRuleNotFound
	}
	if err := s.check(rule.LawyerID, guard); err != nil {
		return err
	}
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()
	s.rules[rule.ID] = cloneRule(rule)
	return nil
}

func (s *RuleStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return repository.ErrRuleNotFound
	}
	delete(s.rules, id)
	s.order = slices.DeleteFunc(s.order, func(v uuid.UUID) bool { return v == id })
	return nil
}

func (s *RuleStore) DeactivateExpired(_ context.Context, today schedule.Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, rule := range s.rules {
		if rule.IsActive && rule.EndDate < today {
			rule.IsActive = false
			rule.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// check вызывается с захваченным s.mu
func (s *RuleStore) check(lawyerID uuid.UUID, guard repository.RuleGuard) error {
	if guard == nil {
		return nil
	}
	return guard(s.collect(func(r *model.AvailabilityRule) bool { return r.LawyerID == lawyerID && r.IsActive }))
}

func (s *RuleStore) filter(keep func(*model.AvailabilityRule) bool) []*model.AvailabilityRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(keep)
}

func (s *RuleStore) collect(keep func(*model.AvailabilityRule) bool) []*model.AvailabilityRule {
	var out []*model.AvailabilityRule
	for _, id := range s.order {
		if rule := s.rules[id]; keep(rule) {
			out = append(out, cloneRule(rule))
		}
	}
	return out
}

func cloneRule(r *model.AvailabilityRule) *model.AvailabilityRule {
	c := *r
	c.AvailableDays = slices.Clone(r.AvailableDays)
	c.ExceptionDays = slices.Clone(r.ExceptionDays)
	return &c
}

type claimKey struct {
	lawyerID uuid.UUID
	key      schedule.SlotKey
}

// BookingStore сериализует захват слотов одним мьютексом,
// как уникальный ключ slot_claims в базе.
type BookingStore struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*model.Booking
	claims   map[claimKey]uuid.UUID
}

func NewBookingStore() *BookingStore {
	return &BookingStore{
		bookings: make(map[uuid.UUID]*model.Booking),
		claims:   make(map[claimKey]uuid.UUID),
	}
}

func (s *BookingStore) Claim(_ context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ck := claimKey{lawyerID: booking.LawyerID, key: booking.Key()}
	if _, taken := s.claims[ck]; taken {
		return repository.ErrSlotClaimed
	}

	now := time.Now()
	booking.CreatedAt, booking.UpdatedAt = now, now
	b := *booking
	s.bookings[booking.ID] = &b
	s.claims[ck] = booking.ID
	return nil
}

func (s *BookingStore) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	out := *b
	return &out, nil
}

func (s *BookingStore) GetByClientID(_ context.Context, clientID uuid.UUID) ([]*model.Booking, error) {
	return s.filter(func(b *model.Booking) bool { return b.ClientID == clientID }), nil
}

func (s *BookingStore) GetByLawyerID(_ context.Context, lawyerID uuid.UUID) ([]*model.Booking, error) {
	return s.filter(func(b *model.Booking) bool { return b.LawyerID == lawyerID }), nil
}

func (s *BookingStore) Cancel(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if !b.IsActive() {
		return repository.ErrBookingNotActive
	}
	b.Status = model.BookingStatusCanceled
	b.UpdatedAt = time.Now()

	ck := claimKey{lawyerID: b.LawyerID, key: b.Key()}
	if s.claims[ck] == id {
		delete(s.claims, ck)
	}
	return nil
}

func (s *BookingStore) ClaimedKeys(_ context.Context, lawyerID uuid.UUID, from, to schedule.Date) (schedule.BookedKeys, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(schedule.BookedKeys)
	for ck, bookingID := range s.claims {
		if ck.lawyerID == lawyerID && ck.key.Date >= from && ck.key.Date <= to {
			keys[ck.key] = bookingID.String()
		}
	}
	return keys, nil
}

func (s *BookingStore) filter(keep func(*model.Booking) bool) []*model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Booking
	for _, b := range s.bookings {
		if keep(b) {
			c := *b
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *model.Booking) int {
		if a.Date != b.Date {
			return int(b.Date - a.Date)
		}
		return int(b.StartTime - a.StartTime)
	})
	return out
}
