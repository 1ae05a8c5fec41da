package query

import (
	"net/url"
	"testing"

	"github.com/yanizio/bistro/internal/schema"
)

func mustTable(t *testing.T, name string) *schema.Table {
	t.Helper()
	tbl, err := schema.Default().Lookup(name)
	if err != nil {
		t.Fatalf("lookup %s: %v", name, err)
	}
	return tbl
}

func TestTranslateEmpty(t *testing.T) {
	f, err := Translate(mustTable(t, "tables"), url.Values{"foo": {"bar"}, "where": {""}})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if f.SQL() != "" || len(f.Params) != 0 {
		t.Fatalf("expected empty fragment, got %q %#v", f.SQL(), f.Params)
	}
}

func TestTranslateWhereOrderLimit(t *testing.T) {
	q, _ := url.ParseQuery("where=tableNumber=5&orderBy=-seats,tableNumber&limit=1")
	f, err := Translate(mustTable(t, "tables"), q)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	want := " WHERE (`tableNumber` = :w0) ORDER BY `seats` DESC, `tableNumber` ASC LIMIT :limit"
	if f.SQL() != want {
		t.Fatalf("sql:\n got %q\nwant %q", f.SQL(), want)
	}
	if f.Params["w0"] != int64(5) || f.Params["limit"] != int64(1) {
		t.Fatalf("params: %#v", f.Params)
	}
}

func TestTranslateConjunctionsAndLike(t *testing.T) {
	q := url.Values{
		"where": {"guests>=4_OR_status!=cancelled", "bookingTime_LIKE_19%"},
	}
	f, err := Translate(mustTable(t, "bookings"), q)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	want := " WHERE (`guests` >= :w0 OR `status` <> :w1) AND (`bookingTime` LIKE :w2)"
	if f.Where != want {
		t.Fatalf("where:\n got %q\nwant %q", f.Where, want)
	}
	if f.Params["w1"] != "cancelled" || f.Params["w2"] != "19%" {
		t.Fatalf("params: %#v", f.Params)
	}
}

func TestTranslateNeverInlinesValues(t *testing.T) {
	q := url.Values{"where": {"description=x' OR '1'='1"}}
	f, err := Translate(mustTable(t, "tables"), q)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if f.Where != " WHERE (`description` = :w0)" {
		t.Fatalf("value leaked into SQL: %q", f.Where)
	}
}

func TestTranslateErrors(t *testing.T) {
	cases := []url.Values{
		{"where": {"nonsense"}},
		{"where": {"nosuch=1"}},
		{"where": {"password=abc"}}, // hidden on users, see below
		{"where": {"tableNumber=five"}},
		{"orderBy": {"drop"}},
		{"limit": {"-1"}},
		{"offset": {"5"}},
	}
	for i, q := range cases {
		table := "tables"
		if i == 2 {
			table = "users"
		}
		_, err := Translate(mustTable(t, table), q)
		if !schema.IsValidationError(err) {
			t.Errorf("case %d %v: expected ValidationError, got %v", i, q, err)
		}
	}
}

func TestFragmentAnd(t *testing.T) {
	f := Fragment{}
	f.And("`userId` = :ownerId", "ownerId", int64(7))
	if f.Where != " WHERE `userId` = :ownerId" || f.Params["ownerId"] != int64(7) {
		t.Fatalf("and on empty: %q %#v", f.Where, f.Params)
	}

	q, _ := url.ParseQuery("where=guests=2_OR_guests=3")
	f, _ = Translate(mustTable(t, "bookings"), q)
	f.And("`userId` = :ownerId", "ownerId", int64(7))
	want := " WHERE (`guests` = :w0 OR `guests` = :w1) AND `userId` = :ownerId"
	if f.Where != want {
		t.Fatalf("and on existing:\n got %q\nwant %q", f.Where, want)
	}
}
