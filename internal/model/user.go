// Package model holds the persisted entities and their inputs.
package model

// User is a row of the users table.
type User struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Age   int    `db:"age" json:"age"`
	Email string `db:"email" json:"email"`
}

// NewUser is the input for creating a user. The store assigns the ID.
type NewUser struct {
	Name  string `db:"name" json:"name"`
	Age   int    `db:"age" json:"age"`
	Email string `db:"email" json:"email"`
}

// UserPatch is a partial update. Nil fields are left untouched.
// It has no ID field: IDs are immutable once assigned.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Age   *int    `json:"age,omitempty"`
	Email *string `json:"email,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.Email == nil
}

// Columns returns the column/value pairs of the set fields.
func (p UserPatch) Columns() map[string]any {
	cols := make(map[string]any, 3)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Age != nil {
		cols["age"] = *p.Age
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	return cols
}
