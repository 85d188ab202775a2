package warranty

import (
	"context"
	"errors"
	"time"

	"github.com/danmuck/fulfillment/internal/apperr"
	"gorm.io/gorm"
)

type warrantyRecord struct {
	ID           int64   `gorm:"primaryKey"`
	Comment      *string `gorm:"size:1024"`
	ItemUID      string  `gorm:"uniqueIndex;not null"`
	Status       string  `gorm:"size:255"`
	WarrantyDate time.Time
}

func (warrantyRecord) TableName() string {
	return "warranty"
}

func (r warrantyRecord) toWarranty() Warranty {
	w := Warranty{
		ID:      r.ID,
		ItemUID: r.ItemUID,
		Status:  Status(r.Status),
		Date:    r.WarrantyDate,
	}
	if r.Comment != nil {
		w.Comment = *r.Comment
	}
	return w
}

// GormStore keeps warranty records in the service's relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the warranty table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&warrantyRecord{})
}

func (s *GormStore) Create(ctx context.Context, w Warranty) (Warranty, error) {
	rec := warrantyRecord{
		ItemUID:      w.ItemUID,
		Status:       string(w.Status),
		WarrantyDate: w.Date,
	}
	if w.Comment != "" {
		rec.Comment = &w.Comment
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&warrantyRecord{}).Where("item_uid = ?", w.ItemUID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errDuplicate(nil)
		}
		return tx.Create(&rec).Error
	})
	switch {
	case err == nil:
		return rec.toWarranty(), nil
	case errors.Is(err, apperr.ErrConflict):
		return Warranty{}, err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Warranty{}, errDuplicate(err)
	default:
		return Warranty{}, apperr.Internal("warranty store failed", err)
	}
}

func (s *GormStore) Get(ctx context.Context, itemUID string) (Warranty, error) {
	var rec warrantyRecord
	err := s.db.WithContext(ctx).Where("item_uid = ?", itemUID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Warranty{}, errNotFound()
	}
	if err != nil {
		return Warranty{}, apperr.Internal("warranty store failed", err)
	}
	return rec.toWarranty(), nil
}

func (s *GormStore) SetStatus(ctx context.Context, itemUID string, status Status) error {
	res := s.db.WithContext(ctx).
		Model(&warrantyRecord{}).
		Where("item_uid = ?", itemUID).
		Update("status", string(status))
	if res.Error != nil {
		return apperr.Internal("warranty store failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound()
	}
	return nil
}
