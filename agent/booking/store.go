package booking

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/CharlesKZhang/Reservation-Bot/agent/contract"
)

// How far from the requested time a slot may be to count as an alternate.
const alternateWindowMinutes = 30

const (
	msgNoDateAvailability = "no availability for this date"
	msgNearbySlotsFound   = "requested slot unavailable, nearby slots found"
	msgNoNearbySlot       = "no suitable slot within 30 minutes"
)

// Alternate is a nearby time on the requested date, tagged with its own
// availability for the requested party size.
type Alternate struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AvailabilityResult is the answer to an exact-slot lookup, optionally
// carrying nearby alternates when the exact slot is taken.
type AvailabilityResult struct {
	Available  bool        `json:"available"`
	Alternates []Alternate `json:"alternates,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// Booking is an immutable record of one successful reservation.
type Booking struct {
	ID               string    `json:"id"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	PartySize        int       `json:"party_size"`
	ConfirmationCode string    `json:"confirmation_code"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store is the availability contract consumed by the tool layer. The real
// backend is out of scope; MemoryStore below is the process-lifetime stand-in.
type Store interface {
	QueryAvailability(ctx context.Context, date, timeOfDay string, partySize int) (AvailabilityResult, error)
	Reserve(ctx context.Context, date, timeOfDay string, partySize int) (Booking, error)
	Bookings() []Booking
}

// StoreOption customizes MemoryStore.
type StoreOption func(*MemoryStore)

// WithClock overrides the timestamp source for booking records.
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore keeps availability flags and the booking log in memory. A
// single lock guards the whole structure: Reserve holds the write lock for
// its full check-flip-append sequence, so two concurrent reservations of the
// same slot can never both succeed.
type MemoryStore struct {
	mu        sync.RWMutex
	days      map[string]map[string]map[int]bool
	bookings  []Booking
	usedCodes map[string]struct{}
	now       func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore seeds a store from external seed data. A date with no seeded
// entry means "no availability data", which is distinct from fully booked.
func NewMemoryStore(seed Seed, opts ...StoreOption) *MemoryStore {
	store := &MemoryStore{
		days:      make(map[string]map[string]map[int]bool, len(seed)),
		usedCodes: make(map[string]struct{}),
		now:       time.Now,
	}
	for date, times := range seed {
		day := make(map[string]map[int]bool, len(times))
		for timeOfDay, parties := range times {
			flags := make(map[int]bool, len(parties))
			for partySize, available := range parties {
				flags[partySize] = available
			}
			day[timeOfDay] = flags
		}
		store.days[date] = day
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

// QueryAvailability looks up the exact (date, time, partySize) slot. When the
// exact slot is taken it scans every known time on the date and reports those
// within the alternate window, sorted ascending by clock time.
func (s *MemoryStore) QueryAvailability(ctx context.Context, date, timeOfDay string, partySize int) (AvailabilityResult, error) {
	if err := ctx.Err(); err != nil {
		return AvailabilityResult{}, err
	}
	requested, err := parseClock(timeOfDay)
	if err != nil {
		return AvailabilityResult{}, err
	}
	if partySize <= 0 {
		return AvailabilityResult{}, fmt.Errorf("%w: party size must be positive", contractx.ErrValidation)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	day, ok := s.days[date]
	if !ok {
		return AvailabilityResult{Available: false, Message: msgNoDateAvailability}, nil
	}

	if day[timeOfDay][partySize] {
		return AvailabilityResult{
			Available:  true,
			Alternates: []Alternate{{Time: timeOfDay, Available: true}},
		}, nil
	}

	var candidates []Alternate
	anyOpen := false
	for knownTime, parties := range day {
		minutes, err := parseClock(knownTime)
		if err != nil {
			// Seed data with an unparseable time is skipped rather than
			// poisoning every query on the date.
			log.Warn().Str("date", date).Str("time", knownTime).Msg("skipping malformed seeded time")
			continue
		}
		// The requested time itself is not an alternate.
		if minutes == requested {
			continue
		}
		if absDiff(minutes, requested) > alternateWindowMinutes {
			continue
		}
		open := parties[partySize]
		anyOpen = anyOpen || open
		candidates = append(candidates, Alternate{Time: knownTime, Available: open})
	}

	if !anyOpen {
		return AvailabilityResult{Available: false, Message: msgNoNearbySlot}, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, _ := parseClock(candidates[i].Time)
		b, _ := parseClock(candidates[j].Time)
		return a < b
	})

	return AvailabilityResult{
		Available:  false,
		Alternates: candidates,
		Message:    msgNearbySlotsFound,
	}, nil
}

// Reserve atomically tests and clears the slot's availability flag. On
// success it appends an immutable booking record with a fresh confirmation
// code. A missing or already-taken slot fails with ErrSlotUnavailable and
// leaves no side effect.
func (s *MemoryStore) Reserve(ctx context.Context, date, timeOfDay string, partySize int) (Booking, error) {
	if err := ctx.Err(); err != nil {
		return Booking{}, err
	}
	if _, err := parseClock(timeOfDay); err != nil {
		return Booking{}, err
	}
	if partySize <= 0 {
		return Booking{}, fmt.Errorf("%w: party size must be positive", contractx.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.days[date]
	if !ok {
		return Booking{}, fmt.Errorf("%w: no availability for date=%s", contractx.ErrSlotUnavailable, date)
	}
	parties, ok := day[timeOfDay]
	if !ok || !parties[partySize] {
		return Booking{}, fmt.Errorf("%w: date=%s time=%s party_size=%d", contractx.ErrSlotUnavailable, date, timeOfDay, partySize)
	}

	parties[partySize] = false

	record := Booking{
		ID:               uuid.NewString(),
		Date:             date,
		Time:             timeOfDay,
		PartySize:        partySize,
		ConfirmationCode: s.nextConfirmationCode(),
		CreatedAt:        s.now().UTC(),
	}
	s.bookings = append(s.bookings, record)

	log.Info().
		Str("date", date).
		Str("time", timeOfDay).
		Int("party_size", partySize).
		Str("confirmation_code", record.ConfirmationCode).
		Msg("slot reserved")

	return record, nil
}

// Bookings returns a copy of the append-only booking log.
func (s *MemoryStore) Bookings() []Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Booking, len(s.bookings))
	copy(out, s.bookings)
	return out
}

// nextConfirmationCode draws short uppercase codes until one is unused.
// Caller must hold the write lock.
func (s *MemoryStore) nextConfirmationCode() string {
	for {
		code := strings.ToUpper(uuid.NewString()[:8])
		if _, taken := s.usedCodes[code]; taken {
			continue
		}
		s.usedCodes[code] = struct{}{}
		return code
	}
}

// parseClock converts an "HH:MM" string to minutes since midnight.
func parseClock(value string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("%w: time %q is not HH:MM", contractx.ErrValidation, value)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: time %q has invalid hour", contractx.ErrValidation, value)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: time %q has invalid minute", contractx.ErrValidation, value)
	}
	return hour*60 + minute, nil
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
