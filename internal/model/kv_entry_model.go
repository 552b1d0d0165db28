package model

import (
	"time"

	"gorm.io/datatypes"
)

type KVEntry struct {
	Namespace string         `gorm:"type:varchar(64);primaryKey"`
	Key       string         `gorm:"type:varchar(64);primaryKey"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
