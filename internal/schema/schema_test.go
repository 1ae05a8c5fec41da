package schema

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func init() { HashCost = bcrypt.MinCost }

func TestLookupCaseInsensitiveAndInternal(t *testing.T) {
	reg := Default()

	tbl, err := reg.Lookup("Bookings")
	if err != nil {
		t.Fatalf("lookup bookings: %v", err)
	}
	if tbl.Name != TableBookings {
		t.Fatalf("canonical name = %q", tbl.Name)
	}
	if _, err := reg.Lookup(TableSessions); err != ErrUnknownTable {
		t.Fatalf("sessions must be internal, got %v", err)
	}
	if _, err := reg.Lookup("users; DROP TABLE users"); err != ErrUnknownTable {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestBindRejectsUnknownColumn(t *testing.T) {
	tbl, _ := Default().Lookup(TableTables)
	_, err := tbl.Bind(map[string]any{"tableNumber": json.Number("3"), "bogus": "x"}, ModeUpdate, true)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBindConvertsAndDropsReadOnly(t *testing.T) {
	tbl, _ := Default().Lookup(TableBookings)
	b, err := tbl.Bind(map[string]any{
		"id":          json.Number("99"),
		"userId":      json.Number("7"),
		"tableId":     "2",
		"bookingDate": "2025-06-01",
		"bookingTime": "19:00",
		"guests":      json.Number("4"),
		"created":     "1999-01-01 00:00:00",
	}, ModeCreate, false)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	want := "bookingDate,bookingTime,guests,tableId,userId"
	if got := strings.Join(b.Columns, ","); got != want {
		t.Fatalf("columns = %s, want %s", got, want)
	}
	if b.Args["tableId"] != int64(2) || b.Args["guests"] != int64(4) {
		t.Fatalf("ints not converted: %#v", b.Args)
	}
}

func TestBindValidatorTags(t *testing.T) {
	tbl, _ := Default().Lookup(TableBookings)
	cases := map[string]any{
		"bookingDate": "01/06/2025",
		"bookingTime": "7pm",
		"guests":      json.Number("0"),
		"tableId":     json.Number("1.5"),
	}
	for col, v := range cases {
		_, err := tbl.Bind(map[string]any{col: v}, ModeUpdate, true)
		if !IsValidationError(err) {
			t.Errorf("%s=%v: expected validation error, got %v", col, v, err)
		}
	}
}

func TestBindRequiredOnCreate(t *testing.T) {
	tbl, _ := Default().Lookup(TableTables)
	_, err := tbl.Bind(map[string]any{"seats": json.Number("4")}, ModeCreate, true)
	if !IsValidationError(err) {
		t.Fatalf("missing tableNumber should fail, got %v", err)
	}
}

func TestBindAdminOnlyAndHashed(t *testing.T) {
	tbl, _ := Default().Lookup(TableUsers)
	body := map[string]any{
		"email":    "anna@example.com",
		"password": "hunter22",
		"role":     "admin",
	}

	b, err := tbl.Bind(body, ModeCreate, false)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if b.Args["role"] != "user" {
		t.Fatalf("non-admin role = %v, want user", b.Args["role"])
	}
	hash, _ := b.Args["password"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter22")) != nil {
		t.Fatalf("password not hashed with bcrypt: %q", hash)
	}

	b, err = tbl.Bind(map[string]any{"role": "admin"}, ModeUpdate, false)
	if err != nil {
		t.Fatalf("bind update: %v", err)
	}
	if _, ok := b.Args["role"]; ok {
		t.Fatalf("non-admin update must drop role")
	}

	b, err = tbl.Bind(body, ModeCreate, true)
	if err != nil {
		t.Fatalf("bind admin: %v", err)
	}
	if b.Args["role"] != "admin" {
		t.Fatalf("admin role = %v", b.Args["role"])
	}
}

func TestScrub(t *testing.T) {
	tbl, _ := Default().Lookup(TableUsers)
	row := Row{
		"id":       []byte("3"),
		"email":    []byte("a@b.c"),
		"password": "secret",
		"created":  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	tbl.Scrub(row)
	if _, ok := row["password"]; ok {
		t.Fatalf("hidden column leaked")
	}
	if row["id"] != int64(3) || row["email"] != "a@b.c" {
		t.Fatalf("bytes not normalised: %#v", row)
	}
	if row["created"] != "2025-01-02 03:04:05" {
		t.Fatalf("created = %v", row["created"])
	}
}

func TestCreateSQL(t *testing.T) {
	tbl, _ := Default().Lookup(TableTimeSlots)

	lite := tbl.CreateSQL(SQLite)
	if !strings.Contains(lite, "`id` INTEGER PRIMARY KEY AUTOINCREMENT") ||
		!strings.Contains(lite, "`time` TEXT NOT NULL UNIQUE") {
		t.Fatalf("sqlite ddl:\n%s", lite)
	}

	my := tbl.CreateSQL(MySQL)
	if !strings.Contains(my, "AUTO_INCREMENT") || !strings.Contains(my, "`time` CHAR(5) NOT NULL UNIQUE") {
		t.Fatalf("mysql ddl:\n%s", my)
	}
}

func TestBindFoldsStatusAndEmail(t *testing.T) {
	bookings, _ := Default().Lookup(TableBookings)

	b, err := bookings.Bind(map[string]any{"status": " Cancelled "}, ModeUpdate, false)
	if err != nil {
		t.Fatalf("bind status: %v", err)
	}
	if b.Args["status"] != "cancelled" {
		t.Fatalf("status = %q, want cancelled", b.Args["status"])
	}
	for _, bad := range []string{"pending", "", "booked!"} {
		if _, err := bookings.Bind(map[string]any{"status": bad}, ModeUpdate, false); !IsValidationError(err) {
			t.Fatalf("status %q should fail, got %v", bad, err)
		}
	}

	users, _ := Default().Lookup(TableUsers)
	b, err = users.Bind(map[string]any{"email": "Anna@Example.COM"}, ModeUpdate, false)
	if err != nil {
		t.Fatalf("bind email: %v", err)
	}
	if b.Args["email"] != "anna@example.com" {
		t.Fatalf("email = %q", b.Args["email"])
	}

	col, _ := users.Column("email")
	v, err := col.ConvertFilter("ANNA@example.com")
	if err != nil || v != "anna@example.com" {
		t.Fatalf("filter = %v, %v", v, err)
	}
}

func TestCreateSQLFoldCollation(t *testing.T) {
	users, _ := Default().Lookup(TableUsers)

	if lite := users.CreateSQL(SQLite); !strings.Contains(lite, "`email` TEXT COLLATE NOCASE NOT NULL UNIQUE") {
		t.Fatalf("sqlite ddl:\n%s", lite)
	}
	if my := users.CreateSQL(MySQL); strings.Contains(my, "NOCASE") {
		t.Fatalf("mysql ddl must not carry NOCASE:\n%s", my)
	}
}
