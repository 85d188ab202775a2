package orders

import (
	"context"
	"errors"
	"time"

	"github.com/danmuck/fulfillment/internal/apperr"
	"gorm.io/gorm"
)

type orderRecord struct {
	ID        int64     `gorm:"primaryKey"`
	ItemUID   string    `gorm:"not null"`
	OrderDate time.Time `gorm:"not null"`
	OrderUID  string    `gorm:"uniqueIndex;not null"`
	Status    string    `gorm:"size:255;not null"`
	UserUID   string    `gorm:"index;not null"`
}

func (orderRecord) TableName() string {
	return "orders"
}

func (r orderRecord) toOrder() Order {
	return Order{
		ID:      r.ID,
		UID:     r.OrderUID,
		UserUID: r.UserUID,
		ItemUID: r.ItemUID,
		Date:    r.OrderDate,
		Status:  Status(r.Status),
	}
}

// GormStore keeps orders in the service's relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the orders table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&orderRecord{})
}

func (s *GormStore) Create(ctx context.Context, o Order) (Order, error) {
	rec := orderRecord{
		ItemUID:   o.ItemUID,
		OrderDate: o.Date,
		OrderUID:  o.UID,
		Status:    string(o.Status),
		UserUID:   o.UserUID,
	}
	err := s.db.WithContext(ctx).Create(&rec).Error
	switch {
	case err == nil:
		return rec.toOrder(), nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Order{}, apperr.Conflict("order already exists", err)
	default:
		return Order{}, apperr.Internal("order store failed", err)
	}
}

func (s *GormStore) Get(ctx context.Context, orderUID string) (Order, error) {
	var rec orderRecord
	err := s.db.WithContext(ctx).Where("order_uid = ?", orderUID).First(&rec).Error
	switch {
	case err == nil:
		return rec.toOrder(), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Order{}, errNotFound()
	default:
		return Order{}, apperr.Internal("order store failed", err)
	}
}

func (s *GormStore) ListByUser(ctx context.Context, userUID string) ([]Order, error) {
	var recs []orderRecord
	if err := s.db.WithContext(ctx).Where("user_uid = ?", userUID).Order("id").Find(&recs).Error; err != nil {
		return nil, apperr.Internal("order store failed", err)
	}
	out := make([]Order, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toOrder())
	}
	return out, nil
}

func (s *GormStore) Delete(ctx context.Context, orderUID string) error {
	res := s.db.WithContext(ctx).Where("order_uid = ?", orderUID).Delete(&orderRecord{})
	if res.Error != nil {
		return apperr.Internal("order store failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound()
	}
	return nil
}
