package identity

import "context"

// User is a persisted account. Password handling happens in the auth
// collaborator; the core only ever reads the role.
type User struct {
	ID       int64
	Username string
	Email    string
	Role     Role
}

// UserRepository resolves persisted accounts for identity lookups.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
}
