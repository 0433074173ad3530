package fleet

import (
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
)

// EntityType names a holdable entity as it appears in notifications and
// hold requests.
type EntityType string

const (
	EntityVehicle   EntityType = "vehicle"
	EntityDriver    EntityType = "driver"
	EntityAssistant EntityType = "assistant"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityVehicle, EntityDriver, EntityAssistant:
		return true
	}
	return false
}

// RecordKind is a table that carries HoldState. Routes are holdable records
// but never the root of a cascade.
type RecordKind string

const (
	RecordVehicle   RecordKind = "vehicle"
	RecordDriver    RecordKind = "driver"
	RecordAssistant RecordKind = "assistant"
	RecordRoute     RecordKind = "route"
)

var (
	ErrVehicleNotFound   = apperr.New(apperr.KindNotFound, "vehicle not found")
	ErrDriverNotFound    = apperr.New(apperr.KindNotFound, "driver not found")
	ErrAssistantNotFound = apperr.New(apperr.KindNotFound, "passenger assistant not found")
	ErrEmployeeNotFound  = apperr.New(apperr.KindNotFound, "employee not found")
	ErrInvalidEntityType = apperr.Validation("entity_type must be one of vehicle, driver, assistant")
)

// HoldState is embedded on every holdable table. on_hold=false implies a nil
// reason and a nil notification id.
type HoldState struct {
	OnHold               bool       `gorm:"column:on_hold;not null;default:false;index" json:"on_hold"`
	OnHoldReason         *string    `gorm:"column:on_hold_reason;type:text" json:"on_hold_reason"`
	OnHoldNotificationID *uint64    `gorm:"column:on_hold_notification_id;index" json:"on_hold_notification_id"`
	OnHoldSetBy          *string    `gorm:"column:on_hold_set_by;size:64" json:"on_hold_set_by"`
	OnHoldSetAt          *time.Time `gorm:"column:on_hold_set_at" json:"on_hold_set_at"`
	OnHoldClearedAt      *time.Time `gorm:"column:on_hold_cleared_at" json:"on_hold_cleared_at"`
}

type Employee struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FullName  string    `gorm:"column:full_name;size:255;not null" json:"full_name"`
	Email     *string   `gorm:"column:email;size:255" json:"email"`
	Phone     *string   `gorm:"column:phone;size:32" json:"phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Employee) TableName() string { return "employees" }

type Vehicle struct {
	ID                 uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Registration       string    `gorm:"column:registration;size:32;not null;uniqueIndex" json:"registration"`
	Make               string    `gorm:"column:make;size:64" json:"make"`
	Model              string    `gorm:"column:model;size:64" json:"model"`
	AssignedEmployeeID *uint64   `gorm:"column:assigned_employee_id;index" json:"assigned_employee_id"`
	AssignedEmployee   *Employee `gorm:"foreignKey:AssignedEmployeeID" json:"assigned_employee,omitempty"`
	HoldState          `gorm:"embedded"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Vehicle) TableName() string { return "vehicles" }

type Driver struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EmployeeID uint64    `gorm:"column:employee_id;not null;index" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	HoldState  `gorm:"embedded"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Driver) TableName() string { return "drivers" }

type PassengerAssistant struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EmployeeID uint64    `gorm:"column:employee_id;not null;index" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	HoldState  `gorm:"embedded"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PassengerAssistant) TableName() string { return "passenger_assistants" }

type Route struct {
	ID                   uint64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RouteNumber          string  `gorm:"column:route_number;size:32;not null" json:"route_number"`
	SchoolName           string  `gorm:"column:school_name;size:255" json:"school_name"`
	VehicleID            *uint64 `gorm:"column:vehicle_id;index" json:"vehicle_id"`
	DriverID             *uint64 `gorm:"column:driver_id;index" json:"driver_id"`
	PassengerAssistantID *uint64 `gorm:"column:passenger_assistant_id;index" json:"passenger_assistant_id"`
	HoldState            `gorm:"embedded"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Route) TableName() string { return "routes" }

// HoldChange is the identical payload written to every record of a cascade.
type HoldChange struct {
	OnHold         bool
	Reason         *string
	NotificationID *uint64
	SetBy          *string
	At             time.Time
}

// Columns renders the change as an update map. A release keeps the
// set_by/set_at history and only stamps cleared_at.
func (c HoldChange) Columns() map[string]any {
	if c.OnHold {
		return map[string]any{
			"on_hold":                 true,
			"on_hold_reason":          c.Reason,
			"on_hold_notification_id": c.NotificationID,
			"on_hold_set_by":          c.SetBy,
			"on_hold_set_at":          c.At,
			"on_hold_cleared_at":      nil,
		}
	}
	return map[string]any{
		"on_hold":                 false,
		"on_hold_reason":          nil,
		"on_hold_notification_id": nil,
		"on_hold_cleared_at":      c.At,
	}
}

// CascadeSet is every record that changes hold state together.
type CascadeSet struct {
	Root       EntityType `json:"entity_type"`
	RootID     uint64     `json:"entity_id"`
	Vehicles   []uint64   `json:"vehicle_ids"`
	Drivers    []uint64   `json:"driver_ids"`
	Assistants []uint64   `json:"assistant_ids"`
	Routes     []uint64   `json:"route_ids"`
}

func (s CascadeSet) Size() int {
	return len(s.Vehicles) + len(s.Drivers) + len(s.Assistants) + len(s.Routes)
}

// ByKind lists the ids per table in a fixed order so concurrent cascades
// acquire row locks in the same sequence.
func (s CascadeSet) ByKind() []KindIDs {
	return []KindIDs{
		{Kind: RecordVehicle, IDs: s.Vehicles},
		{Kind: RecordDriver, IDs: s.Drivers},
		{Kind: RecordAssistant, IDs: s.Assistants},
		{Kind: RecordRoute, IDs: s.Routes},
	}
}

type KindIDs struct {
	Kind RecordKind
	IDs  []uint64
}
