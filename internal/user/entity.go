package user

import "github.com/google/uuid"

// RoleManager is the only role allowed to own a sprint.
const RoleManager = "manager"

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}
