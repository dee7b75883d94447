package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is one node in the catalog tree. ParentID is nil for roots.
type Category struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"column:name;not null;index:idx_categories_parent_name,unique"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid;index:idx_categories_parent_name,unique"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the dialect has no server-side default.
func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
