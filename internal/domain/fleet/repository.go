package fleet

import "context"

type Repository interface {
	GetEmployee(ctx context.Context, id uint64) (*Employee, error)
	// Vehicle, driver and assistant getters preload the linked employee.
	GetVehicle(ctx context.Context, id uint64) (*Vehicle, error)
	GetDriver(ctx context.Context, id uint64) (*Driver, error)
	GetAssistant(ctx context.Context, id uint64) (*PassengerAssistant, error)
	DriversByIDs(ctx context.Context, ids []uint64) ([]Driver, error)
	AssistantsByIDs(ctx context.Context, ids []uint64) ([]PassengerAssistant, error)

	// LockEntity takes a row lock on the cascade root (no-op on stores
	// without row locks) and fails with the entity's NotFound error.
	LockEntity(ctx context.Context, t EntityType, id uint64) error

	RoutesByVehicle(ctx context.Context, vehicleID uint64) ([]Route, error)
	RoutesByDriver(ctx context.Context, driverID uint64) ([]Route, error)
	RoutesByAssistant(ctx context.Context, assistantID uint64) ([]Route, error)

	// HoldOf reads the current hold state of the cascade root.
	HoldOf(ctx context.Context, t EntityType, id uint64) (*HoldState, error)

	// SetHold writes change to every id of kind. Releases only touch rows
	// still on hold, so a repeated release changes nothing.
	SetHold(ctx context.Context, kind RecordKind, ids []uint64, change HoldChange) (int64, error)
}
