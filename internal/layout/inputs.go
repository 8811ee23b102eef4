package layout

import (
	"encoding/json"
	"time"
)

// Inputs use pointer fields for optional values: nil leaves the stored value
// untouched on update and takes the default on create.

// CreateFloorPlanInput is the body of createFloorPlan
type CreateFloorPlanInput struct {
	Name            string  `json:"name"`
	CanvasWidth     *int    `json:"canvasWidth,omitempty"`
	CanvasHeight    *int    `json:"canvasHeight,omitempty"`
	GridSize        *int    `json:"gridSize,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
}

// BulkUpdateInput is the full client-side snapshot of a floor plan's canvas
type BulkUpdateInput struct {
	Name              *string        `json:"name,omitempty"`
	CanvasWidth       *int           `json:"canvasWidth,omitempty"`
	CanvasHeight      *int           `json:"canvasHeight,omitempty"`
	GridSize          *int           `json:"gridSize,omitempty"`
	BackgroundColor   *string        `json:"backgroundColor,omitempty"`
	Elements          []ElementInput `json:"elements,omitempty"`
	Racks             []RackInput    `json:"racks,omitempty"`
	DeletedElementIDs []string       `json:"deletedElementIds,omitempty"`
	DeletedRackIDs    []string       `json:"deletedRackIds,omitempty"`
}

// ElementInput creates (ID nil or unknown) or updates a canvas element
type ElementInput struct {
	ID          *string         `json:"id,omitempty"`
	ElementType string          `json:"elementType"`
	Properties  json.RawMessage `json:"properties,omitempty"`
	ZIndex      *int            `json:"zIndex,omitempty"`
	IsVisible   *bool           `json:"isVisible,omitempty"`
}

// RackInput creates (ID nil or unknown) or updates a rack
type RackInput struct {
	ID          *string  `json:"id,omitempty"`
	Name        string   `json:"name"`
	Code        *string  `json:"code,omitempty"`
	Description *string  `json:"description,omitempty"`
	PhotoURL    *string  `json:"photoUrl,omitempty"`
	PositionX   *float64 `json:"positionX,omitempty"`
	PositionY   *float64 `json:"positionY,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Rotation    *int     `json:"rotation,omitempty"`
	TotalU      *int     `json:"totalU,omitempty"`
	SortOrder   *int     `json:"sortOrder,omitempty"`
}

// EquipmentInput creates or patches rack-mounted equipment.
// Name, StartU and HeightU are required on create.
type EquipmentInput struct {
	Name         *string         `json:"name,omitempty"`
	Model        *string         `json:"model,omitempty"`
	Manufacturer *string         `json:"manufacturer,omitempty"`
	SerialNumber *string         `json:"serialNumber,omitempty"`
	StartU       *int            `json:"startU,omitempty"`
	HeightU      *int            `json:"heightU,omitempty"`
	Category     *string         `json:"category,omitempty"`
	InstallDate  *time.Time      `json:"installDate,omitempty"`
	Manager      *string         `json:"manager,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Properties   json.RawMessage `json:"properties,omitempty"`
	SortOrder    *int            `json:"sortOrder,omitempty"`
}

// MoveInput relocates equipment within its rack; height is unchanged
type MoveInput struct {
	StartU int `json:"startU"`
}

// PortInput creates or patches a port. Name and PortType are required on create.
type PortInput struct {
	Name          *string `json:"name,omitempty"`
	PortType      *string `json:"portType,omitempty"`
	PortNumber    *int    `json:"portNumber,omitempty"`
	Label         *string `json:"label,omitempty"`
	Speed         *string `json:"speed,omitempty"`
	ConnectorType *string `json:"connectorType,omitempty"`
	Description   *string `json:"description,omitempty"`
	SortOrder     *int    `json:"sortOrder,omitempty"`
}

// SubstationInput creates or patches a substation. Name and Code are required on create.
type SubstationInput struct {
	Name      *string `json:"name,omitempty"`
	Code      *string `json:"code,omitempty"`
	Address   *string `json:"address,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
}

// FloorInput creates or patches a floor. Name is required on create.
type FloorInput struct {
	Name        *string `json:"name,omitempty"`
	FloorNumber *int    `json:"floorNumber,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}
