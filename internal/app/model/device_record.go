package model

import "time"

// DeviceRecord is one opaque blob of the device key-value store.
type DeviceRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Scope     string    `gorm:"size:64;not null;uniqueIndex:idx_device_records_scope_key" json:"scope"`
	Key       string    `gorm:"column:record_key;size:64;not null;uniqueIndex:idx_device_records_scope_key" json:"key"`
	Value     []byte    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DeviceRecord) TableName() string {
	return "device_records"
}
