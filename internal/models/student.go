package models

// Student is the single managed entity: one row in the students table.
// Gender and Age are nullable columns, so they are pointers and render
// as JSON null when unset.
type Student struct {
	ID        int64   `db:"id" json:"id"`
	FirstName string  `db:"firstname" json:"firstname"`
	LastName  string  `db:"lastname" json:"lastname"`
	Gender    *string `db:"gender" json:"gender"`
	Age       *int64  `db:"age" json:"age"`
}
