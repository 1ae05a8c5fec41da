package availability

import "strings"

// Cell is one (table, slot) position in the grid.
type Cell struct {
	Slot      string `json:"slot"`
	Booked    bool   `json:"booked"`
	BookingID int64  `json:"bookingId,omitempty"`
}

// Row is one table's cells, ordered like Grid.Slots.
type Row struct {
	Table Table  `json:"table"`
	Cells []Cell `json:"cells"`
}

// Grid is the tables × slots matrix for one date.
type Grid struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
	Rows  []Row    `json:"rows"`
}

// BuildGrid derives the grid from resp.  A cell is booked iff some booking
// has the table's id, the slot's time (first five characters), and status
// "booked".
func BuildGrid(resp *Response) Grid {
	type key struct {
		table int64
		slot  string
	}
	taken := make(map[key]int64, len(resp.Bookings))
	for _, b := range resp.Bookings {
		if !strings.EqualFold(b.Status, activeStatus) {
			continue
		}
		taken[key{b.TableID, clock(b.BookingTime)}] = b.ID
	}

	g := Grid{Date: resp.Date, Slots: resp.Slots, Rows: make([]Row, 0, len(resp.Tables))}
	for _, t := range resp.Tables {
		row := Row{Table: t, Cells: make([]Cell, len(resp.Slots))}
		for i, slot := range resp.Slots {
			id, booked := taken[key{t.ID, slot}]
			row.Cells[i] = Cell{Slot: slot, Booked: booked, BookingID: id}
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}
