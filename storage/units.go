package storage

import (
	"context"
	"errors"

	"github.com/hidenkeys/studios/studio"
	"gorm.io/gorm"
)

// Units is the gorm-backed studio catalog.
type Units struct {
	db *gorm.DB
}

func NewUnits(db *gorm.DB) *Units {
	return &Units{db: db}
}

func (s *Units) List(ctx context.Context) ([]studio.Unit, error) {
	var units []studio.Unit
	if err := s.db.WithContext(ctx).Order("name").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (s *Units) Get(ctx context.Context, id uint) (studio.Unit, error) {
	var u studio.Unit
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return studio.Unit{}, studio.ErrNotFound
		}
		return studio.Unit{}, err
	}
	return u, nil
}

func (s *Units) Create(ctx context.Context, u *studio.Unit) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Units) Update(ctx context.Context, id uint, fields map[string]any) (studio.Unit, error) {
	var u studio.Unit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&u).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&u, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return studio.Unit{}, studio.ErrNotFound
	}
	return u, err
}
