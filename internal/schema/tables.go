package schema

// Table names with behaviour outside the generic path.
const (
	TableBookings  = "bookings"
	TableTimeSlots = "time_slots"
	TableTables    = "tables"
	TableUsers     = "users"
	TableACL       = "acl"
	TableSessions  = "sessions"
)

// Default returns the registry for the booking application.  Each call
// builds fresh tables so tests may mutate their copy.
func Default() *Registry {
	return NewRegistry(
		&Table{
			Name: TableTables,
			Columns: []Column{
				{Name: "tableNumber", Kind: KindInt, Required: true, Unique: true, Validate: "gte=1"},
				{Name: "seats", Kind: KindInt, Required: true, Validate: "gte=1"},
				{Name: "description", Kind: KindText, Validate: "max=255"},
			},
		},
		&Table{
			Name: TableBookings,
			Columns: []Column{
				{Name: "userId", Kind: KindInt, Required: true},
				{Name: "tableId", Kind: KindInt, Required: true},
				{Name: "bookingDate", Kind: KindDate, Required: true, Validate: "datetime=2006-01-02"},
				{Name: "bookingTime", Kind: KindTime, Required: true, Validate: "datetime=15:04"},
				{Name: "guests", Kind: KindInt, Required: true, Validate: "gte=1,lte=50"},
				{Name: "status", Kind: KindText, Required: true, Default: "'booked'", Fold: true, Validate: "oneof=booked cancelled"},
				{Name: "created", Kind: KindTimestamp, Default: "CURRENT_TIMESTAMP", ReadOnly: true},
			},
		},
		&Table{
			Name: TableTimeSlots,
			Columns: []Column{
				{Name: "time", Kind: KindTime, Required: true, Unique: true, Validate: "datetime=15:04"},
			},
		},
		&Table{
			Name: "menu_items",
			Columns: []Column{
				{Name: "name", Kind: KindText, Required: true, Validate: "min=1,max=255"},
				{Name: "price", Kind: KindFloat, Required: true, Validate: "gte=0"},
				{Name: "description", Kind: KindLongText},
			},
		},
		&Table{
			Name: TableUsers,
			Columns: []Column{
				{Name: "email", Kind: KindText, Required: true, Unique: true, Fold: true, Validate: "email"},
				{Name: "password", Kind: KindText, Required: true, Hidden: true, Hashed: true, Validate: "min=6,max=72"},
				{Name: "firstName", Kind: KindText, Validate: "max=100"},
				{Name: "lastName", Kind: KindText, Validate: "max=100"},
				{Name: "role", Kind: KindText, Required: true, Default: "'user'",
					Validate: "oneof=visitor user admin", AdminOnly: true, AdminDefault: "user"},
				{Name: "created", Kind: KindTimestamp, Default: "CURRENT_TIMESTAMP", ReadOnly: true},
			},
		},
		&Table{
			Name: TableACL,
			Columns: []Column{
				{Name: "userRoles", Kind: KindText, Required: true},
				{Name: "method", Kind: KindText, Required: true, Validate: "oneof=GET POST PUT PATCH DELETE"},
				{Name: "allow", Kind: KindText, Required: true, Default: "'allow'", Validate: "oneof=allow deny"},
				{Name: "route", Kind: KindText, Required: true, Validate: "startswith=/"},
				{Name: "match", Kind: KindText, Default: "'true'"},
				{Name: "comment", Kind: KindText},
			},
		},
		&Table{
			Name:     TableSessions,
			Internal: true,
			Columns: []Column{
				{Name: "token", Kind: KindText, Required: true, Unique: true},
				{Name: "userId", Kind: KindInt, Required: true},
				{Name: "expires", Kind: KindText, Required: true},
			},
		},
	)
}
