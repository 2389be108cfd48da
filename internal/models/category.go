package models

import "github.com/google/uuid"

// Category levels.
const (
	CategoryMain = "Main"
	CategorySub  = "Sub"
)

// Category groups products; sub-categories point at their parent.
type Category struct {
	BaseModel
	Name         string     `gorm:"uniqueIndex" json:"name"`
	Slug         string     `gorm:"uniqueIndex" json:"slug"`
	Description  string     `json:"description"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index" json:"parentCategory"`
	Type         string     `gorm:"default:Main" json:"type"`
	DisplayOrder int        `json:"displayOrder"`
	Image        string     `json:"image"`
	PublicID     string     `json:"publicId"`
	IsActive     bool       `json:"isActive"`
}
