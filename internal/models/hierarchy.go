package models

import "time"

// Substation is the top of the facility hierarchy.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type Substation struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // A-Z, 0-9 and '-'
	Address   *string   `gorm:"type:text" json:"address,omitempty"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	SortOrder int       `gorm:"default:0" json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Floors []Floor `gorm:"foreignKey:SubstationID;constraint:OnDelete:CASCADE" json:"floors,omitempty"`
}

func (Substation) TableName() string { return "substations" }

// Floor is one level of a substation. It owns at most one floor plan.
type Floor struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	SubstationID string    `gorm:"type:uuid;not null;index" json:"substationId"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	FloorNumber  *int      `json:"floorNumber,omitempty"`
	IsActive     bool      `gorm:"not null" json:"isActive"`
	SortOrder    int       `gorm:"default:0" json:"sortOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	FloorPlan *FloorPlan `gorm:"foreignKey:FloorID;constraint:OnDelete:CASCADE" json:"floorPlan,omitempty"`
}

func (Floor) TableName() string { return "floors" }
