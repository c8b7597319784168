package user

import (
	"errors"
	"strings"

	userDatamodel "github.com/frahmantamala/resolution-tracker/internal/core/datamodel/user"
)

// Position is the organizational rank of a unit or person.
type Position string

const (
	PositionDeputy    Position = "deputy"
	PositionManager   Position = "manager"
	PositionHead      Position = "head"
	PositionEmployee  Position = "employee"
	PositionSecretary Position = "secretary"
	PositionAuditor   Position = "auditor"
	PositionCEO       Position = "ceo"
	PositionBoard     Position = "board"
)

var positions = map[Position]struct{}{
	PositionDeputy:    {},
	PositionManager:   {},
	PositionHead:      {},
	PositionEmployee:  {},
	PositionSecretary: {},
	PositionAuditor:   {},
	PositionCEO:       {},
	PositionBoard:     {},
}

func (p Position) Valid() bool {
	_, ok := positions[p]
	return ok
}

// Ref is the lightweight reference embedded in other records.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID         int64    `json:"id"`
	Username   string   `json:"username"`
	Department string   `json:"department,omitempty"`
	Position   Position `json:"position"`
	Supervisor *Ref     `json:"supervisor,omitempty"`
}

// DisplayName prefers the department label and falls back to the username.
func (u User) DisplayName() string {
	if d := strings.TrimSpace(u.Department); d != "" {
		return d
	}
	return u.Username
}

func (u User) Ref() Ref {
	return Ref{ID: u.ID, Name: u.DisplayName()}
}

func (u User) SupervisorID() *int64 {
	if u.Supervisor == nil {
		return nil
	}
	id := u.Supervisor.ID
	return &id
}

// Is reports whether u and other are the same principal.
func (u *User) Is(other *User) bool {
	return u != nil && other != nil && u.ID == other.ID
}

func (u *User) HasPosition(ps ...Position) bool {
	if u == nil {
		return false
	}
	for _, p := range ps {
		if u.Position == p {
			return true
		}
	}
	return false
}

var ErrNotFound = errors.New("user not found")

// IDs returns the ids of users in order.
func IDs(users []User) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// ByID indexes users by id, keeping the first occurrence.
func ByID(users []User) map[int64]User {
	m := make(map[int64]User, len(users))
	for _, u := range users {
		if _, ok := m[u.ID]; !ok {
			m[u.ID] = u
		}
	}
	return m
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		Department:   u.Department,
		Position:     string(u.Position),
		SupervisorID: u.SupervisorID(),
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	out := &User{
		ID:         u.ID,
		Username:   u.Username,
		Department: u.Department,
		Position:   Position(u.Position),
	}
	if u.SupervisorID != nil {
		ref := &Ref{ID: *u.SupervisorID}
		if u.Supervisor != nil {
			ref.Name = FromDataModel(u.Supervisor).DisplayName()
		}
		out.Supervisor = ref
	}
	return out
}
