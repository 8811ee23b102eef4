package models

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultRackUnits is the capacity given to a rack created without totalU
const DefaultRackUnits = 42

// Rack represents an equipment rack placed on the floor-plan canvas
type Rack struct {
	ID          string   `gorm:"primaryKey;type:uuid" json:"id"`
	FloorPlanID string   `gorm:"type:uuid;not null;index" json:"floorPlanId"`
	Name        string   `gorm:"type:varchar(100);not null" json:"name"`
	Code        *string  `gorm:"type:varchar(50)" json:"code,omitempty"`
	Description *string  `gorm:"type:text" json:"description,omitempty"`
	PhotoURL    *string  `gorm:"type:varchar(500)" json:"photoUrl,omitempty"`

	// Visual positioning for the floor-plan editor
	PositionX float64  `gorm:"not null;default:0" json:"positionX"`
	PositionY float64  `gorm:"not null;default:0" json:"positionY"`
	Width     *float64 `json:"width,omitempty"`
	Height    *float64 `json:"height,omitempty"`
	Rotation  int      `gorm:"not null;default:0" json:"rotation"` // 0, 90, 180, 270

	TotalU    int       `gorm:"not null;default:42" json:"totalU"`
	SortOrder int       `gorm:"default:0" json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Equipment []Equipment `gorm:"foreignKey:RackID;constraint:OnDelete:CASCADE" json:"equipment"`
}

func (Rack) TableName() string { return "racks" }

// Equipment is mounted in a rack over units [StartU, StartU+HeightU-1]
type Equipment struct {
	ID           string            `gorm:"primaryKey;type:uuid" json:"id"`
	RackID       string            `gorm:"type:uuid;not null;index" json:"rackId"`
	Name         string            `gorm:"type:varchar(100);not null" json:"name"`
	Model        *string           `gorm:"type:varchar(100)" json:"model,omitempty"`
	Manufacturer *string           `gorm:"type:varchar(100)" json:"manufacturer,omitempty"`
	SerialNumber *string           `gorm:"type:varchar(100)" json:"serialNumber,omitempty"`
	StartU       int               `gorm:"not null" json:"startU"`
	HeightU      int               `gorm:"not null;default:1" json:"heightU"`
	Category     string            `gorm:"type:varchar(20);not null;default:'OTHER'" json:"category"`
	InstallDate  *time.Time        `json:"installDate,omitempty"`
	Manager      *string           `gorm:"type:varchar(100)" json:"manager,omitempty"`
	Description  *string           `gorm:"type:text" json:"description,omitempty"`
	Properties   datatypes.JSONMap `gorm:"type:jsonb" json:"properties,omitempty"`
	SortOrder    int               `gorm:"default:0" json:"sortOrder"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`

	Ports []Port `gorm:"foreignKey:EquipmentID;constraint:OnDelete:CASCADE" json:"ports"`
}

func (Equipment) TableName() string { return "equipment" }

// EndU is the last unit occupied by the equipment
func (e Equipment) EndU() int { return e.StartU + e.HeightU - 1 }

// Port is a physical connector exposed by a piece of equipment
type Port struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	EquipmentID   string    `gorm:"type:uuid;not null;index" json:"equipmentId"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	PortType      string    `gorm:"type:varchar(10);not null" json:"portType"`
	PortNumber    *int      `json:"portNumber,omitempty"`
	Label         *string   `gorm:"type:varchar(100)" json:"label,omitempty"`
	Speed         *string   `gorm:"type:varchar(50)" json:"speed,omitempty"`
	ConnectorType *string   `gorm:"type:varchar(50)" json:"connectorType,omitempty"`
	Description   *string   `gorm:"type:text" json:"description,omitempty"`
	SortOrder     int       `gorm:"default:0" json:"sortOrder"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Port) TableName() string { return "ports" }
