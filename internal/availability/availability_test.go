package availability

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/bistro/internal/auth"
	"github.com/yanizio/bistro/internal/database"
)

func setup(t *testing.T) (*Aggregator, *sqlx.DB) {
	t.Helper()
	db, err := database.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.MustExec("INSERT INTO `tables` (`tableNumber`, `seats`, `description`) VALUES (2, 4, 'window'), (1, 2, NULL)")

	a := New(db)
	a.now = func() time.Time { return time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC) }
	return a, db
}

func addBooking(t *testing.T, db *sqlx.DB, tableID int64, date, at, status string) {
	t.Helper()
	db.MustExec("INSERT INTO `bookings` (`userId`, `tableId`, `bookingDate`, `bookingTime`, `guests`, `status`) VALUES (1, ?, ?, ?, 2, ?)",
		tableID, date, at, status)
}

func TestNoBookingsEveryCellFree(t *testing.T) {
	a, _ := setup(t)
	resp, err := a.Availability(context.Background(), auth.RequestContext{}, "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, DefaultSlots, resp.Slots, "empty time_slots falls back to defaults")
	require.Len(t, resp.Tables, 2)
	assert.Equal(t, int64(1), resp.Tables[0].TableNumber, "tables sorted by number")
	assert.Empty(t, resp.Bookings)

	g := BuildGrid(resp)
	for _, row := range g.Rows {
		for _, c := range row.Cells {
			assert.False(t, c.Booked, "table %d %s", row.Table.TableNumber, c.Slot)
		}
	}
}

func TestCancelledBookingLeavesCellFree(t *testing.T) {
	a, db := setup(t)
	var tableOne int64
	require.NoError(t, db.Get(&tableOne, "SELECT `id` FROM `tables` WHERE `tableNumber` = 1"))

	addBooking(t, db, tableOne, "2025-06-01", "19:00", "cancelled")
	addBooking(t, db, tableOne, "2025-06-01", "20:00", "Booked")
	addBooking(t, db, tableOne, "2025-06-02", "19:00", "booked")

	resp, err := a.Availability(context.Background(), auth.RequestContext{}, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "20:00", resp.Bookings[0].BookingTime)

	g := BuildGrid(resp)
	cells := map[string]bool{}
	for _, row := range g.Rows {
		if row.Table.ID != tableOne {
			continue
		}
		for _, c := range row.Cells {
			cells[c.Slot] = c.Booked
		}
	}
	assert.False(t, cells["19:00"])
	assert.True(t, cells["20:00"])
}

func TestConfiguredSlotsAndDateFallback(t *testing.T) {
	a, db := setup(t)
	db.MustExec("INSERT INTO `time_slots` (`time`) VALUES ('21:00'), ('18:30')")

	resp, err := a.Availability(context.Background(), auth.RequestContext{}, "06/01/2025")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", resp.Date)
	assert.Equal(t, []string{"18:30", "21:00"}, resp.Slots)
}

func TestNormalizeDate(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("X", -5*3600))
	assert.Equal(t, "2024-02-29", NormalizeDate("2024-02-29", now))
	assert.Equal(t, "2025-01-02", NormalizeDate("2023-02-29", now))
	assert.Equal(t, "2025-01-02", NormalizeDate("", now))
	assert.Equal(t, "2025-01-02", NormalizeDate("2025-1-2", now))
}

func TestEnsureTimeSlots(t *testing.T) {
	_, db := setup(t)
	ctx := context.Background()

	n, err := EnsureTimeSlots(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultSlots), n)

	n, err = EnsureTimeSlots(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBuildGridPure(t *testing.T) {
	resp := &Response{
		Date:   "2025-06-01",
		Slots:  []string{"19:00", "20:00"},
		Tables: []Table{{ID: 1, TableNumber: 1}, {ID: 2, TableNumber: 2}},
		Bookings: []Booking{
			{ID: 10, TableID: 2, BookingTime: "19:00:00", Status: "booked"},
			{ID: 11, TableID: 1, BookingTime: "20:00", Status: "cancelled"},
		},
	}
	g := BuildGrid(resp)
	require.Len(t, g.Rows, 2)
	assert.Equal(t, []Cell{{Slot: "19:00"}, {Slot: "20:00"}}, g.Rows[0].Cells)
	assert.Equal(t, []Cell{{Slot: "19:00", Booked: true, BookingID: 10}, {Slot: "20:00"}}, g.Rows[1].Cells)
}
