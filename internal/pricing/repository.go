package pricing

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	GetAsset(ctx context.Context, asset string) (*PaymentAsset, error)
	ListAssets(ctx context.Context) ([]PaymentAsset, error)
	UpsertAssets(ctx context.Context, assets []PaymentAsset) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetAsset(ctx context.Context, asset string) (*PaymentAsset, error) {
	var pa PaymentAsset
	err := r.db.WithContext(ctx).Where("asset = ?", asset).First(&pa).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnacceptablePayment
		}
		return nil, err
	}
	return &pa, nil
}

func (r *repository) ListAssets(ctx context.Context) ([]PaymentAsset, error) {
	var assets []PaymentAsset
	err := r.db.WithContext(ctx).Order("asset").Find(&assets).Error
	return assets, err
}

func (r *repository) UpsertAssets(ctx context.Context, assets []PaymentAsset) error {
	if len(assets) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}},
		DoUpdates: clause.AssignmentColumns([]string{"feed_url", "exponent", "updated_at"}),
	}).Create(&assets).Error
}
