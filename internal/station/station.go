package station

import (
	"time"

	"github.com/google/uuid"
)

// Station is the community space auto-provisioned 1:1 from a launch.
type Station struct {
	ID            uuid.UUID `json:"id" db:"id"`
	LaunchID      uuid.UUID `json:"launch_id" db:"launch_id"`
	OwnerUsername string    `json:"owner_username" db:"owner_username"`
	Name          string    `json:"name" db:"name"`
	Slug          string    `json:"slug" db:"slug"`
	MemberCount   int       `json:"member_count" db:"member_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type Role struct {
	ID          uuid.UUID `json:"id" db:"id"`
	StationID   uuid.UUID `json:"station_id" db:"station_id"`
	Name        string    `json:"name" db:"name"`
	Permissions []string  `json:"permissions" db:"permissions"`
	Priority    int       `json:"priority" db:"priority"`
	IsSystem    bool      `json:"is_system" db:"is_system"`
	IsDefault   bool      `json:"is_default" db:"is_default"`
}

type CrewMember struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StationID uuid.UUID `json:"station_id" db:"station_id"`
	Username  string    `json:"username" db:"username"`
	RoleID    uuid.UUID `json:"role_id" db:"role_id"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}

// RoleSeed describes one of the fixed roles provisioned with every station.
type RoleSeed struct {
	Name        string
	Permissions []string
	Priority    int
	IsDefault   bool
}

// DefaultRoles returns the fixed role set seeded into each new station, highest
// priority first. All seeded roles are system roles and cannot be deleted.
func DefaultRoles() []RoleSeed {
	return []RoleSeed{
		{Name: "Captain", Priority: 100, Permissions: []string{"manage_station", "manage_roles", "manage_crew", "post", "moderate"}},
		{Name: "Co-Captain", Priority: 90, Permissions: []string{"manage_crew", "post", "moderate"}},
		{Name: "Moderator", Priority: 50, Permissions: []string{"post", "moderate"}},
		{Name: "Crew", Priority: 10, Permissions: []string{"post"}, IsDefault: true},
	}
}

type StationDetail struct {
	Station Station      `json:"station"`
	Roles   []Role       `json:"roles"`
	Crew    []CrewMember `json:"crew"`
}
