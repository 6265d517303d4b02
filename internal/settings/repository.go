package settings

import (
	"context"
	"errors"
	"fmt"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/firestoreutil"

	"cloud.google.com/go/firestore"
	"gorm.io/gorm"
)

// Repository loads and stores the settings singleton.
// Get returns common.ErrNotFound until the first Save.
type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := r.db.WithContext(ctx).Where("id = ?", SiteID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Settings have not been saved yet.")
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &s, nil
}

func (r *gormRepository) Save(ctx context.Context, s *Settings) error {
	s.ID = SiteID
	return r.db.WithContext(ctx).Save(s).Error
}

const settingsCollection = "settings"

type firestoreRepository struct {
	client *firestore.Client
}

func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) doc() *firestore.DocumentRef {
	return r.client.Collection(settingsCollection).Doc(SiteID)
}

func (r *firestoreRepository) Get(ctx context.Context) (*Settings, error) {
	snap, err := r.doc().Get(ctx)
	if err != nil {
		if firestoreutil.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("Settings have not been saved yet.")
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	var s Settings
	if err := snap.DataTo(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &s, nil
}

func (r *firestoreRepository) Save(ctx context.Context, s *Settings) error {
	s.ID = SiteID
	_, err := r.doc().Set(ctx, s)
	return err
}
