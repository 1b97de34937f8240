package identity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminRole is the coarse two-valued permission tag resolved per session.
type AdminRole string

const (
	RoleEditor     AdminRole = "editor"
	RoleSuperadmin AdminRole = "superadmin"
)

func (r AdminRole) Valid() bool {
	return r == RoleEditor || r == RoleSuperadmin
}

type Admin struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      AdminRole `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardCounts is the admin landing page summary.
type DashboardCounts struct {
	Products   int64 `json:"products"`
	Categories int64 `json:"categories"`
	Orders     int64 `json:"orders"`
	Users      int64 `json:"users"`
}
