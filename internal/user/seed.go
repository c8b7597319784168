package user

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Seed is the fixture file loaded by the seed command.
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	ID           int64    `yaml:"id"`
	Username     string   `yaml:"username"`
	Department   string   `yaml:"department"`
	Position     Position `yaml:"position"`
	SupervisorID *int64   `yaml:"supervisor_id"`
}

func ParseSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	ids := make(map[int64]bool, len(s.Users))
	for _, u := range s.Users {
		if u.ID <= 0 || u.Username == "" {
			return nil, fmt.Errorf("seed user %q: id and username are required", u.Username)
		}
		if ids[u.ID] {
			return nil, fmt.Errorf("seed user %d listed twice", u.ID)
		}
		ids[u.ID] = true
	}
	for _, u := range s.Users {
		if u.SupervisorID != nil && !ids[*u.SupervisorID] {
			return nil, fmt.Errorf("seed user %d: unknown supervisor %d", u.ID, *u.SupervisorID)
		}
	}
	return &s, nil
}

// ApplySeed upserts every seeded user. Supervisors are linked in a second
// pass so the file can list users in any order.
func (s *Service) ApplySeed(ctx context.Context, seed *Seed) error {
	for _, su := range seed.Users {
		u := User{ID: su.ID, Username: su.Username, Department: su.Department, Position: su.Position}
		if err := s.Save(ctx, &u); err != nil {
			return err
		}
	}
	for _, su := range seed.Users {
		if su.SupervisorID == nil {
			continue
		}
		u := User{
			ID:         su.ID,
			Username:   su.Username,
			Department: su.Department,
			Position:   su.Position,
			Supervisor: &Ref{ID: *su.SupervisorID},
		}
		if err := s.Save(ctx, &u); err != nil {
			return err
		}
	}
	return nil
}
