package gormstore

import (
	"context"
	"errors"
	"time"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRecord struct {
	ID        string   `gorm:"primaryKey;size:64"`
	Name      string   `gorm:"size:255;not null"`
	Price     int64    `gorm:"not null"`
	Stock     int      `gorm:"not null;check:stock >= 0"`
	Images    []string `gorm:"serializer:json"`
	UpdatedAt time.Time
}

func (productRecord) TableName() string { return "products" }

func toRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.StockQuantity,
		Images:    append([]string(nil), p.Images...),
		UpdatedAt: p.UpdatedAt,
	}
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:            r.ID,
		Name:          r.Name,
		Price:         r.Price,
		StockQuantity: r.Stock,
		Images:        r.Images,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ProductRepository is the Postgres stock ledger. Stock changes are single
// conditional UPDATE statements, so concurrent orders cannot oversell.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Put inserts or replaces a catalog row.
func (r *ProductRepository) Put(ctx context.Context, p *domain.Product) error {
	rec := toRecord(p)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var rec productRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// DecreaseStock only succeeds when enough stock is left.
func (r *ProductRepository) DecreaseStock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	res := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrShort(ctx, id)
	}
	return nil
}

func (r *ProductRepository) IncreaseStock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	res := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// missOrShort tells a missing product from one without enough stock after a
// conditional update touched no row.
func (r *ProductRepository) missOrShort(ctx context.Context, id string) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientStock
}
