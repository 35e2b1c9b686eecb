package credstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tms-portal/internal/auth"
	"tms-portal/internal/models"
)

// PostgresStore keeps users in the users table.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FetchAll(ctx context.Context) ([]auth.RawRecord, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	recs := make([]auth.RawRecord, 0, len(users))
	for _, u := range users {
		recs = append(recs, auth.RawRecord{
			Username: u.Username,
			Name:     u.Name,
			Secret:   u.Password,
			IsHashed: u.IsHashed,
			Role:     string(u.Role),
		})
	}
	return recs, nil
}

func (s *PostgresStore) Exists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return count > 0, nil
}

func (s *PostgresStore) Add(ctx context.Context, rec auth.RawRecord) error {
	ok, err := s.Exists(ctx, rec.Username)
	if err != nil {
		return err
	}
	if ok {
		return ErrUserExists
	}

	user := models.User{
		Username: rec.Username,
		Name:     rec.Name,
		Password: rec.Secret,
		IsHashed: rec.IsHashed,
		Role:     models.ParseRole(rec.Role),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, username string) error {
	// Unscoped: a soft delete would keep the username taken in the unique index.
	res := s.db.WithContext(ctx).
		Unscoped().
		Where("username = ?", username).
		Delete(&models.User{})
	if res.Error != nil {
		return fmt.Errorf("db error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
