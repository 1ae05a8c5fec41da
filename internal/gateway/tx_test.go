package gateway

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/bistro/internal/schema"
)

func mockGateway(t *testing.T) (*Gateway, sqlmock.Sqlmock) {
	t.Helper()
	return mockGatewayFor(t, schema.MySQL)
}

func mockGatewayFor(t *testing.T, d schema.Dialect) (*Gateway, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return New(sqlx.NewDb(raw, string(d)), schema.Default()), mock
}

// exact anchors a statement so a locking read cannot satisfy a plain one.
func exact(q string) string { return "^" + regexp.QuoteMeta(q) + "$" }

// A foreign delete must lock the row inside the transaction and roll back
// without ever issuing DELETE.
func TestDeleteForeignRollsBack(t *testing.T) {
	gw, mock := mockGateway(t)

	mock.ExpectBegin()
	mock.ExpectQuery(exact("SELECT * FROM `bookings` WHERE `id` = ? FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "userId", "status"}).
			AddRow(int64(7), int64(1), "booked"))
	mock.ExpectRollback()

	_, err := gw.Delete(context.Background(), bob, "bookings", "7")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// Insert and re-read share one transaction and use LastInsertId.
func TestCreateUsesLastInsertID(t *testing.T) {
	gw, mock := mockGateway(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO `tables` (`seats`, `tableNumber`) VALUES (?, ?)")).
		WithArgs(int64(4), int64(3)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `tables` WHERE `id` = ?")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tableNumber", "seats", "description"}).
			AddRow([]byte("42"), []byte("3"), []byte("4"), nil))
	mock.ExpectCommit()

	row, err := gw.Create(context.Background(), admin, "tables",
		map[string]any{"tableNumber": 3, "seats": 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if row["insertId"] != int64(42) || row["tableNumber"] != int64(3) {
		t.Fatalf("unexpected row %v", row)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpdateOwnedChecksBeforeWrite(t *testing.T) {
	gw, mock := mockGateway(t)

	mock.ExpectBegin()
	mock.ExpectQuery(exact("SELECT * FROM `bookings` WHERE `id` = ? FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "userId"}).AddRow(int64(3), int64(1)))
	mock.ExpectExec(exact(
		"UPDATE `bookings` SET `guests` = ?, `userId` = ? WHERE `id` = ?")).
		WithArgs(int64(4), int64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(exact("SELECT * FROM `bookings` WHERE `id` = ?")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "userId", "guests"}).
			AddRow(int64(3), int64(1), int64(4)))
	mock.ExpectCommit()

	row, err := gw.Update(context.Background(), alice, "bookings", "3",
		map[string]any{"guests": 4})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if row["guests"] != int64(4) {
		t.Fatalf("unexpected row %v", row)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// The owner row stays locked from the check to the DELETE, so a
// reassignment committed meanwhile cannot be acted on by the former owner.
func TestDeleteOwnedLocksBeforeWrite(t *testing.T) {
	gw, mock := mockGateway(t)

	mock.ExpectBegin()
	mock.ExpectQuery(exact("SELECT * FROM `bookings` WHERE `id` = ? FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "userId"}).AddRow(int64(5), int64(1)))
	mock.ExpectExec(exact("DELETE FROM `bookings` WHERE `id` = ?")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if _, err := gw.Delete(context.Background(), alice, "bookings", "5"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLiteReadsWithoutLockClause(t *testing.T) {
	gw, mock := mockGatewayFor(t, schema.SQLite)

	mock.ExpectBegin()
	mock.ExpectQuery(exact("SELECT * FROM `bookings` WHERE `id` = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "userId"}).AddRow(int64(7), int64(1)))
	mock.ExpectRollback()

	_, err := gw.Delete(context.Background(), bob, "bookings", "7")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestOutcomeLabels(t *testing.T) {
	cases := map[error]string{
		nil:                       "ok",
		ErrLoginRequired:          "login_required",
		ErrForbidden:              "forbidden",
		ErrNotFound:               "not_found",
		schema.Invalid("x", "y"):  "invalid",
		errors.New("driver down"): "error",
	}
	for err, want := range cases {
		if got := outcome(err); got != want {
			t.Errorf("outcome(%v) = %q, want %q", err, got, want)
		}
	}
}
