// internal/availability/availability.go
//
// Per-date availability view.
//
// Context
// -------
// The booking page needs three things for one calendar date: the bookable
// time slots, every restaurant table, and the bookings still active on
// that date.  The three reads are independent, so they run concurrently
// under one errgroup and the first failure cancels the others.
//
// Grid derivation (BuildGrid) is a pure function over the response so
// clients and tests share one definition of "booked".
//
// Notes
// -----
// • Only status "booked" (any case) blocks a cell.  Cancelled rows do not.
// • A malformed or missing date falls back to today in UTC.
package availability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/bistro/internal/auth"
	"github.com/yanizio/bistro/internal/schema"
)

// DefaultSlots are served when time_slots is empty and seeded by
// EnsureTimeSlots.
var DefaultSlots = []string{"17:00", "18:00", "19:00", "20:00", "21:00", "22:00"}

const activeStatus = "booked"

// Table is the projection of one restaurant table.
type Table struct {
	ID          int64  `db:"id"          json:"id"`
	TableNumber int64  `db:"tableNumber" json:"tableNumber"`
	Seats       int64  `db:"seats"       json:"seats"`
	Description string `db:"description" json:"description"`
}

// Booking is the projection of one active booking.
type Booking struct {
	ID          int64  `db:"id"          json:"id"`
	TableID     int64  `db:"tableId"     json:"tableId"`
	BookingTime string `db:"bookingTime" json:"bookingTime"`
	Status      string `db:"status"      json:"status"`
}

// Response is the availability view for Date.
type Response struct {
	Date     string    `json:"date"`
	Slots    []string  `json:"slots"`
	Tables   []Table   `json:"tables"`
	Bookings []Booking `json:"bookings"`
}

// Aggregator builds availability responses.
type Aggregator struct {
	db  *sqlx.DB
	now func() time.Time
}

// New returns an Aggregator reading from db.
func New(db *sqlx.DB) *Aggregator {
	return &Aggregator{db: db, now: time.Now}
}

// NormalizeDate returns raw when it is a valid YYYY-MM-DD date, otherwise
// today's UTC date.
func NormalizeDate(raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)
	if len(raw) == len(schema.DateLayout) {
		if _, err := time.Parse(schema.DateLayout, raw); err == nil {
			return raw
		}
	}
	return now.UTC().Format(schema.DateLayout)
}

// Availability returns slots, tables, and active bookings for rawDate.  rc
// is accepted for symmetry with the gateway; availability is not
// owner-filtered.
func (a *Aggregator) Availability(ctx context.Context, rc auth.RequestContext, rawDate string) (*Response, error) {
	resp := &Response{Date: NormalizeDate(rawDate, a.now())}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var slots []string
		if err := a.db.SelectContext(gctx, &slots,
			"SELECT `time` FROM `time_slots` ORDER BY `time`"); err != nil {
			return fmt.Errorf("slots: %w", err)
		}
		resp.Slots = normalizeSlots(slots)
		return nil
	})

	g.Go(func() error {
		tables := make([]Table, 0, 16)
		if err := a.db.SelectContext(gctx, &tables,
			"SELECT `id`, `tableNumber`, `seats`, COALESCE(`description`, '') AS `description` "+
				"FROM `tables` ORDER BY `tableNumber`"); err != nil {
			return fmt.Errorf("tables: %w", err)
		}
		resp.Tables = tables
		return nil
	})

	g.Go(func() error {
		var all []Booking
		if err := a.db.SelectContext(gctx, &all, a.db.Rebind(
			"SELECT `id`, `tableId`, `bookingTime`, COALESCE(`status`, '') AS `status` "+
				"FROM `bookings` WHERE `bookingDate` = ? ORDER BY `id`"), resp.Date); err != nil {
			return fmt.Errorf("bookings: %w", err)
		}
		active := make([]Booking, 0, len(all))
		for _, b := range all {
			if strings.ToLower(b.Status) != activeStatus {
				continue
			}
			b.BookingTime = clock(b.BookingTime)
			active = append(active, b)
		}
		resp.Bookings = active
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Debug("availability",
		zap.String("date", resp.Date),
		zap.String("role", rc.Role()),
		zap.Int("slots", len(resp.Slots)),
		zap.Int("tables", len(resp.Tables)),
		zap.Int("bookings", len(resp.Bookings)))
	return resp, nil
}

// normalizeSlots trims stored times to HH:mm, drops duplicates, and sorts.
// An empty result yields DefaultSlots.
func normalizeSlots(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = clock(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultSlots...)
	}
	sort.Strings(out)
	return out
}

// clock reduces "19:00:00" style values to "19:00".
func clock(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		return s[:5]
	}
	return s
}
