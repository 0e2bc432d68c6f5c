package trips

import (
	"context"
	"fmt"
	"strings"

	"wheels/models"
)

type ProfileInput struct {
	Name     string          `json:"nombre"`
	PhotoURL string          `json:"foto"`
	Vehicle  *models.Vehicle `json:"vehiculo,omitempty"`
}

type ProfileService struct {
	base
}

func NewProfileService(d Deps) *ProfileService {
	return &ProfileService{base: newBase(d)}
}

// UpsertProfile stores the session user's profile and drops any cached
// display name for them.
func (s *ProfileService) UpsertProfile(ctx context.Context, sess models.Session, in ProfileInput) (*models.Profile, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &models.ValidationError{Field: "nombre", Message: "is required"}
	}
	if sess.Role != models.RoleDriver && in.Vehicle != nil {
		return nil, &models.ValidationError{Field: "vehiculo", Message: "only drivers have a vehicle"}
	}
	p := &models.Profile{
		ID:        sess.UserID,
		Name:      strings.TrimSpace(in.Name),
		PhotoURL:  in.PhotoURL,
		Role:      sess.Role,
		Vehicle:   in.Vehicle,
		UpdatedAt: s.Now(),
	}
	if err := s.Store.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	if s.Names != nil {
		if err := s.Names.Invalidate(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("invalidate name: %w", err)
		}
	}
	return p, nil
}

func (s *ProfileService) Profile(ctx context.Context, id string) (*models.Profile, error) {
	return s.Store.GetProfile(ctx, id)
}
