package storage

import (
	"context"

	"gorm.io/gorm"

	"reunion/internal/models"
)

// ProfileRepository defines the interface for profile directory operations.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	List(ctx context.Context) ([]models.Profile, error)
	SearchByName(ctx context.Context, fragment string) ([]models.Profile, error)
}

type gormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GORM-based ProfileRepository.
func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

func (r *gormProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// GetByUsername retrieves a profile by its primary key. A missing row yields gorm.ErrRecordNotFound.
func (r *gormProfileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update saves every column of the profile.
func (r *gormProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// List returns every profile ordered by username.
func (r *gormProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	profiles := []models.Profile{}
	err := r.db.WithContext(ctx).Order("username").Find(&profiles).Error
	return profiles, err
}

// SearchByName returns profiles whose first, last or pen name contains
// fragment, ignoring case. Case is folded in Go on write and on query, so
// non-ASCII names match the same way on every dialect. LIKE wildcards in
// fragment match literally.
func (r *gormProfileRepository) SearchByName(ctx context.Context, fragment string) ([]models.Profile, error) {
	profiles := []models.Profile{}
	pattern := containsPattern(fragment)
	err := r.db.WithContext(ctx).
		Where(`firstname_fold LIKE ? ESCAPE '\' OR lastname_fold LIKE ? ESCAPE '\' OR penname_fold LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("username").
		Find(&profiles).Error
	return profiles, err
}
