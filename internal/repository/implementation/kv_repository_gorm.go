package implementation

import (
	"context"
	"errors"

	"design-companion-be/internal/model"
	"design-companion-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormKVRepository struct {
	db *gorm.DB
}

func NewGormKVRepository(db *gorm.DB) (contract.KVRepository, error) {
	if err := db.AutoMigrate(&model.KVEntry{}); err != nil {
		return nil, err
	}
	return &GormKVRepository{db: db}, nil
}

func (r *GormKVRepository) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var entry model.KVEntry
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contract.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (r *GormKVRepository) Set(ctx context.Context, namespace, key string, value []byte) error {
	entry := model.KVEntry{Namespace: namespace, Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (r *GormKVRepository) Delete(ctx context.Context, namespace, key string) error {
	return r.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		Delete(&model.KVEntry{}).Error
}
