package inventory

import (
	"context"
	"errors"

	"github.com/danmuck/fulfillment/internal/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type itemRecord struct {
	ID             int64  `gorm:"primaryKey"`
	AvailableCount int    `gorm:"not null;default:0"`
	Model          string `gorm:"size:255;index:idx_item_model_size"`
	Size           string `gorm:"size:255;index:idx_item_model_size"`
}

func (itemRecord) TableName() string {
	return "item"
}

func (r itemRecord) toItem() Item {
	return Item{ID: r.ID, Model: r.Model, Size: r.Size, AvailableCount: r.AvailableCount}
}

type orderItemRecord struct {
	ID           int64      `gorm:"primaryKey"`
	Canceled     bool       `gorm:"not null;default:false"`
	OrderItemUID string     `gorm:"uniqueIndex;not null"`
	OrderUID     string     `gorm:"index"`
	ItemID       int64      `gorm:"index;not null"`
	Item         itemRecord `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (orderItemRecord) TableName() string {
	return "order_item"
}

func (r orderItemRecord) toReservation() Reservation {
	return Reservation{
		ID:       r.ID,
		UID:      r.OrderItemUID,
		OrderUID: r.OrderUID,
		ItemID:   r.ItemID,
		Canceled: r.Canceled,
	}
}

// GormStore keeps inventory tables in the service's relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the item and order_item tables.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&itemRecord{}, &orderItemRecord{})
}

func (s *GormStore) Update(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, fn)
}

func (s *GormStore) View(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, fn)
}

func (s *GormStore) run(ctx context.Context, fn func(Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{db: tx})
	})
	if err == nil {
		return nil
	}
	var classified *apperr.Error
	if errors.As(err, &classified) {
		return err
	}
	return apperr.Internal("inventory store failed", err)
}

type gormTx struct {
	db *gorm.DB
}

func (t gormTx) FindItem(model, size string) (Item, error) {
	var rec itemRecord
	err := t.db.Where("model = ? AND size = ?", model, size).Order("id").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Item{}, errItemNotFound()
	}
	if err != nil {
		return Item{}, err
	}
	return rec.toItem(), nil
}

func (t gormTx) Item(id int64) (Item, error) {
	var rec itemRecord
	err := t.db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Item{}, errItemNotFound()
	}
	if err != nil {
		return Item{}, err
	}
	return rec.toItem(), nil
}

func (t gormTx) Items() ([]Item, error) {
	var recs []itemRecord
	if err := t.db.Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toItem())
	}
	return out, nil
}

func (t gormTx) UpsertItem(item Item, overwrite bool) (Item, error) {
	existing, err := t.FindItem(item.Model, item.Size)
	switch {
	case err == nil:
		if overwrite {
			if err := t.db.Model(&itemRecord{}).
				Where("id = ?", existing.ID).
				Update("available_count", item.AvailableCount).Error; err != nil {
				return Item{}, err
			}
			existing.AvailableCount = item.AvailableCount
		}
		return existing, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return Item{}, err
	}

	rec := itemRecord{
		ID:             item.ID,
		AvailableCount: item.AvailableCount,
		Model:          item.Model,
		Size:           item.Size,
	}
	if err := t.db.Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Item{}, apperr.Conflict("item id already used", err)
		}
		return Item{}, err
	}
	return rec.toItem(), nil
}

func (t gormTx) AdjustAvailable(itemID int64, delta int) (Item, error) {
	q := t.db.Model(&itemRecord{}).Where("id = ?", itemID)
	if delta < 0 {
		q = q.Where("available_count >= ?", -delta)
	}
	res := q.Update("available_count", gorm.Expr("available_count + ?", delta))
	if res.Error != nil {
		return Item{}, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := t.Item(itemID); err != nil {
			return Item{}, err
		}
		return Item{}, errItemUnavailable()
	}
	return t.Item(itemID)
}

func (t gormTx) InsertReservation(r Reservation) (Reservation, error) {
	rec := orderItemRecord{
		Canceled:     r.Canceled,
		OrderItemUID: r.UID,
		OrderUID:     r.OrderUID,
		ItemID:       r.ItemID,
	}
	if err := t.db.Omit(clause.Associations).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Reservation{}, apperr.Conflict("order item already exists", err)
		}
		return Reservation{}, err
	}
	return rec.toReservation(), nil
}

func (t gormTx) Reservation(uid string) (Reservation, error) {
	var rec orderItemRecord
	err := t.db.Where("order_item_uid = ?", uid).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Reservation{}, errReservationNotFound()
	}
	if err != nil {
		return Reservation{}, err
	}
	return rec.toReservation(), nil
}

func (t gormTx) CancelReservation(uid string) error {
	res := t.db.Model(&orderItemRecord{}).
		Where("order_item_uid = ?", uid).
		Update("canceled", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errReservationNotFound()
	}
	return nil
}
