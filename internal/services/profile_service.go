package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"reunion/internal/apperr"
	"reunion/internal/models"
	"reunion/internal/storage"
)

// maxProfileFieldLength matches the varchar(100) text columns of profiles.
const maxProfileFieldLength = 100

var (
	ErrProfileExists   = apperr.Validation("a profile already exists for this user")
	ErrProfileNotFound = apperr.NotFound("profile not found")
)

// ProfileInput carries the editable fields of a profile.
type ProfileInput struct {
	FirstName  string                   `json:"firstname"`
	LastName   string                   `json:"lastname"`
	PenName    string                   `json:"penname"`
	Instagram  string                   `json:"instagram"`
	Snapchat   string                   `json:"snapchat"`
	Phone      string                   `json:"phone"`
	Visibility models.ProfileVisibility `json:"visibility"`
	EduDetails json.RawMessage          `json:"edu_details"`
}

// ProfileService 管理目录档案。
type ProfileService interface {
	Create(ctx context.Context, username string, in ProfileInput) (*models.Profile, error)
	Get(ctx context.Context, username string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	UpdateMine(ctx context.Context, username string, in ProfileInput) (*models.Profile, error)
}

type profileService struct {
	profileRepo storage.ProfileRepository
}

// NewProfileService 创建一个新的 ProfileService 实例。
func NewProfileService(profileRepo storage.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

// Create stores the caller's profile. The username always comes from the
// authenticated user, never from the request body.
func (s *profileService) Create(ctx context.Context, username string, in ProfileInput) (*models.Profile, error) {
	profile := &models.Profile{Username: username}
	if err := applyProfileInput(profile, in); err != nil {
		return nil, err
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("create profile %q: %w", username, err)
	}
	return profile, nil
}

func (s *profileService) Get(ctx context.Context, username string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile %q: %w", username, err)
	}
	return profile, nil
}

func (s *profileService) List(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// UpdateMine replaces the editable fields of the caller's own profile.
func (s *profileService) UpdateMine(ctx context.Context, username string, in ProfileInput) (*models.Profile, error) {
	profile, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := applyProfileInput(profile, in); err != nil {
		return nil, err
	}
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile %q: %w", username, err)
	}
	return profile, nil
}

func applyProfileInput(p *models.Profile, in ProfileInput) error {
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	pen := strings.TrimSpace(in.PenName)
	if first == "" || last == "" || pen == "" {
		return apperr.Validation("firstname, lastname and penname are required")
	}
	instagram := strings.TrimSpace(in.Instagram)
	snapchat := strings.TrimSpace(in.Snapchat)
	phone := strings.TrimSpace(in.Phone)
	for _, field := range []struct{ name, value string }{
		{"firstname", first},
		{"lastname", last},
		{"penname", pen},
		{"instagram", instagram},
		{"snapchat", snapchat},
		{"phone", phone},
	} {
		if utf8.RuneCountInString(field.value) > maxProfileFieldLength {
			return apperr.Validation("%s must be at most %d characters", field.name, maxProfileFieldLength)
		}
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = models.ProfileVisibilityPublic
	}
	if !visibility.Valid() {
		return apperr.Validation("visibility must be %q or %q", models.ProfileVisibilityPublic, models.ProfileVisibilityPrivate)
	}

	details := models.EduDetails{}
	if raw := strings.TrimSpace(string(in.EduDetails)); raw != "" && raw != "null" {
		if err := json.Unmarshal(in.EduDetails, &details); err != nil {
			return apperr.Validation("edu_details must be a JSON object")
		}
		if details == nil {
			details = models.EduDetails{}
		}
	}

	p.FirstName = first
	p.LastName = last
	p.PenName = pen
	p.Instagram = instagram
	p.Snapchat = snapchat
	p.Phone = phone
	p.Visibility = visibility
	p.EduDetails = details
	return nil
}
