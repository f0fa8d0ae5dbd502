package models

import (
	"strconv"
	"time"
)

// BaseModel defines the common fields for all id-keyed models.
// Relationship rows are hard deleted so there is no soft-delete column.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IDString returns the ID as a string.
func (b *BaseModel) IDString() string {
	return strconv.FormatUint(uint64(b.ID), 10)
}
