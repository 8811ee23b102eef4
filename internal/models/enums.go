package models

// StructuralKind is the element vocabulary used by floor-plan bulk updates
type StructuralKind string

const (
	StructuralWall   StructuralKind = "wall"
	StructuralDoor   StructuralKind = "door"
	StructuralWindow StructuralKind = "window"
	StructuralColumn StructuralKind = "column"
)

var structuralKinds = map[StructuralKind]bool{
	StructuralWall: true, StructuralDoor: true, StructuralWindow: true, StructuralColumn: true,
}

func (k StructuralKind) Valid() bool { return structuralKinds[k] }

// ShapeKind is the element vocabulary used by standalone element mutation
type ShapeKind string

const (
	ShapeLine   ShapeKind = "line"
	ShapeRect   ShapeKind = "rect"
	ShapeCircle ShapeKind = "circle"
	ShapeDoor   ShapeKind = "door"
	ShapeWindow ShapeKind = "window"
	ShapeText   ShapeKind = "text"
)

var shapeKinds = map[ShapeKind]bool{
	ShapeLine: true, ShapeRect: true, ShapeCircle: true, ShapeDoor: true, ShapeWindow: true, ShapeText: true,
}

func (k ShapeKind) Valid() bool { return shapeKinds[k] }

// PortType enumerates physical connector families
type PortType string

const (
	PortAC      PortType = "AC"
	PortDC      PortType = "DC"
	PortLAN     PortType = "LAN"
	PortFiber   PortType = "FIBER"
	PortConsole PortType = "CONSOLE"
	PortUSB     PortType = "USB"
	PortOther   PortType = "OTHER"
)

var portTypes = map[PortType]bool{
	PortAC: true, PortDC: true, PortLAN: true, PortFiber: true, PortConsole: true, PortUSB: true, PortOther: true,
}

func (p PortType) Valid() bool { return portTypes[p] }

// EquipmentCategory classifies rack-mounted equipment
type EquipmentCategory string

const (
	CategoryServer        EquipmentCategory = "SERVER"
	CategoryNetwork       EquipmentCategory = "NETWORK"
	CategoryStorage       EquipmentCategory = "STORAGE"
	CategoryPower         EquipmentCategory = "POWER"
	CategoryProtection    EquipmentCategory = "PROTECTION"
	CategoryCommunication EquipmentCategory = "COMMUNICATION"
	CategoryMonitoring    EquipmentCategory = "MONITORING"
	CategoryOther         EquipmentCategory = "OTHER"
)

var equipmentCategories = map[EquipmentCategory]bool{
	CategoryServer: true, CategoryNetwork: true, CategoryStorage: true, CategoryPower: true,
	CategoryProtection: true, CategoryCommunication: true, CategoryMonitoring: true, CategoryOther: true,
}

func (c EquipmentCategory) Valid() bool { return equipmentCategories[c] }

// Roles carried in access tokens
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
