package models

import (
	"time"

	"gorm.io/datatypes"
)

// Canvas defaults applied when a floor plan is created without explicit dimensions
const (
	DefaultCanvasWidth     = 1200
	DefaultCanvasHeight    = 800
	DefaultGridSize        = 20
	DefaultBackgroundColor = "#ffffff"
)

// FloorPlan is the 2-D canvas of a floor. FloorID is unique: one plan per floor.
type FloorPlan struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	FloorID         string    `gorm:"type:uuid;not null;uniqueIndex" json:"floorId"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	CanvasWidth     int       `gorm:"not null;default:1200" json:"canvasWidth"`
	CanvasHeight    int       `gorm:"not null;default:800" json:"canvasHeight"`
	GridSize        int       `gorm:"not null;default:20" json:"gridSize"`
	BackgroundColor string    `gorm:"type:varchar(20);default:'#ffffff'" json:"backgroundColor"`
	UpdatedBy       *string   `gorm:"type:varchar(255)" json:"updatedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Elements []Element `gorm:"foreignKey:FloorPlanID;constraint:OnDelete:CASCADE" json:"elements"`
	Racks    []Rack    `gorm:"foreignKey:FloorPlanID;constraint:OnDelete:CASCADE" json:"racks"`
}

func (FloorPlan) TableName() string { return "floor_plans" }

// Element is a structural or decorative shape drawn on the canvas.
// Properties carries the shape-specific geometry/style payload untouched.
type Element struct {
	ID          string            `gorm:"primaryKey;type:uuid" json:"id"`
	FloorPlanID string            `gorm:"type:uuid;not null;index" json:"floorPlanId"`
	ElementType string            `gorm:"type:varchar(20);not null" json:"elementType"`
	Properties  datatypes.JSONMap `gorm:"type:jsonb" json:"properties"`
	ZIndex      int               `gorm:"default:0" json:"zIndex"`
	IsVisible   bool              `gorm:"not null" json:"isVisible"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (Element) TableName() string { return "floor_plan_elements" }
