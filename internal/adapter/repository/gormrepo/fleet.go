package gormrepo

import (
	"context"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FleetRepository struct{ db *gorm.DB }

func NewFleetRepository(db *gorm.DB) *FleetRepository { return &FleetRepository{db: db} }

var _ fleet.Repository = (*FleetRepository)(nil)

func (r *FleetRepository) GetEmployee(ctx context.Context, id uint64) (*fleet.Employee, error) {
	var out fleet.Employee
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFoundOr(err, fleet.ErrEmployeeNotFound, "load employee")
	}
	return &out, nil
}

func (r *FleetRepository) GetVehicle(ctx context.Context, id uint64) (*fleet.Vehicle, error) {
	var out fleet.Vehicle
	if err := r.db.WithContext(ctx).Preload("AssignedEmployee").First(&out, id).Error; err != nil {
		return nil, notFoundOr(err, fleet.ErrVehicleNotFound, "load vehicle")
	}
	return &out, nil
}

func (r *FleetRepository) GetDriver(ctx context.Context, id uint64) (*fleet.Driver, error) {
	var out fleet.Driver
	if err := r.db.WithContext(ctx).Preload("Employee").First(&out, id).Error; err != nil {
		return nil, notFoundOr(err, fleet.ErrDriverNotFound, "load driver")
	}
	return &out, nil
}

func (r *FleetRepository) GetAssistant(ctx context.Context, id uint64) (*fleet.PassengerAssistant, error) {
	var out fleet.PassengerAssistant
	if err := r.db.WithContext(ctx).Preload("Employee").First(&out, id).Error; err != nil {
		return nil, notFoundOr(err, fleet.ErrAssistantNotFound, "load passenger assistant")
	}
	return &out, nil
}

func (r *FleetRepository) DriversByIDs(ctx context.Context, ids []uint64) ([]fleet.Driver, error) {
	var out []fleet.Driver
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Preload("Employee").Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, apperr.Upstream(err, "load drivers")
}

func (r *FleetRepository) AssistantsByIDs(ctx context.Context, ids []uint64) ([]fleet.PassengerAssistant, error) {
	var out []fleet.PassengerAssistant
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Preload("Employee").Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, apperr.Upstream(err, "load passenger assistants")
}

func (r *FleetRepository) LockEntity(ctx context.Context, t fleet.EntityType, id uint64) error {
	model, nf, err := rootModel(t)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(model, id).Error
	if err != nil {
		return notFoundOr(err, nf, "lock "+string(t))
	}
	return nil
}

func (r *FleetRepository) RoutesByVehicle(ctx context.Context, vehicleID uint64) ([]fleet.Route, error) {
	return r.routesWhere(ctx, "vehicle_id", vehicleID)
}

func (r *FleetRepository) RoutesByDriver(ctx context.Context, driverID uint64) ([]fleet.Route, error) {
	return r.routesWhere(ctx, "driver_id", driverID)
}

func (r *FleetRepository) RoutesByAssistant(ctx context.Context, assistantID uint64) ([]fleet.Route, error) {
	return r.routesWhere(ctx, "passenger_assistant_id", assistantID)
}

func (r *FleetRepository) routesWhere(ctx context.Context, column string, id uint64) ([]fleet.Route, error) {
	var out []fleet.Route
	err := r.db.WithContext(ctx).Where(column+" = ?", id).Order("id").Find(&out).Error
	return out, apperr.Upstream(err, "load routes")
}

func (r *FleetRepository) HoldOf(ctx context.Context, t fleet.EntityType, id uint64) (*fleet.HoldState, error) {
	switch t {
	case fleet.EntityVehicle:
		v, err := r.GetVehicle(ctx, id)
		if err != nil {
			return nil, err
		}
		return &v.HoldState, nil
	case fleet.EntityDriver:
		d, err := r.GetDriver(ctx, id)
		if err != nil {
			return nil, err
		}
		return &d.HoldState, nil
	case fleet.EntityAssistant:
		a, err := r.GetAssistant(ctx, id)
		if err != nil {
			return nil, err
		}
		return &a.HoldState, nil
	}
	return nil, fleet.ErrInvalidEntityType
}

func (r *FleetRepository) SetHold(ctx context.Context, kind fleet.RecordKind, ids []uint64, change fleet.HoldChange) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	model, err := recordModel(kind)
	if err != nil {
		return 0, err
	}
	q := r.db.WithContext(ctx).Model(model).Where("id IN ?", ids)
	if !change.OnHold {
		q = q.Where("on_hold = ?", true)
	}
	res := q.Updates(change.Columns())
	if res.Error != nil {
		return 0, apperr.Upstream(res.Error, "update "+string(kind)+" hold")
	}
	return res.RowsAffected, nil
}

func rootModel(t fleet.EntityType) (model any, notFound *apperr.Error, err error) {
	switch t {
	case fleet.EntityVehicle:
		return &fleet.Vehicle{}, fleet.ErrVehicleNotFound, nil
	case fleet.EntityDriver:
		return &fleet.Driver{}, fleet.ErrDriverNotFound, nil
	case fleet.EntityAssistant:
		return &fleet.PassengerAssistant{}, fleet.ErrAssistantNotFound, nil
	}
	return nil, nil, fleet.ErrInvalidEntityType
}

func recordModel(kind fleet.RecordKind) (any, error) {
	switch kind {
	case fleet.RecordVehicle:
		return &fleet.Vehicle{}, nil
	case fleet.RecordDriver:
		return &fleet.Driver{}, nil
	case fleet.RecordAssistant:
		return &fleet.PassengerAssistant{}, nil
	case fleet.RecordRoute:
		return &fleet.Route{}, nil
	}
	return nil, apperr.Newf(apperr.KindValidation, "unknown record kind %q", kind)
}
