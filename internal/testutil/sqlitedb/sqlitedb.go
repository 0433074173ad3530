// Package sqlitedb opens migrated in-memory databases and seeds fleet
// records for repository and use case tests.
package sqlitedb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/repository/gormrepo"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
	"github.com/ali-abouelaish/FleetManager-sub004/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a private shared-cache memory database with every table
// migrated. One connection keeps transactions and plain queries on the same
// database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gormrepo.Migrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// Create inserts v or fails the test.
func Create[T any](t *testing.T, db *gorm.DB, v *T) *T {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
	return v
}

func Employee(t *testing.T, db *gorm.DB, name, email string) *fleet.Employee {
	t.Helper()
	e := &fleet.Employee{FullName: name}
	if email != "" {
		e.Email = &email
	}
	return Create(t, db, e)
}

func Vehicle(t *testing.T, db *gorm.DB, registration string, assigned *fleet.Employee) *fleet.Vehicle {
	t.Helper()
	v := &fleet.Vehicle{Registration: registration}
	if assigned != nil {
		v.AssignedEmployeeID = &assigned.ID
	}
	return Create(t, db, v)
}

func Driver(t *testing.T, db *gorm.DB, emp *fleet.Employee) *fleet.Driver {
	t.Helper()
	return Create(t, db, &fleet.Driver{EmployeeID: emp.ID})
}

func Assistant(t *testing.T, db *gorm.DB, emp *fleet.Employee) *fleet.PassengerAssistant {
	t.Helper()
	return Create(t, db, &fleet.PassengerAssistant{EmployeeID: emp.ID})
}

// Route seeds a route; nil arguments leave the reference empty.
func Route(t *testing.T, db *gorm.DB, number string, v *fleet.Vehicle, d *fleet.Driver, pa *fleet.PassengerAssistant) *fleet.Route {
	t.Helper()
	r := &fleet.Route{RouteNumber: number}
	if v != nil {
		r.VehicleID = &v.ID
	}
	if d != nil {
		r.DriverID = &d.ID
	}
	if pa != nil {
		r.PassengerAssistantID = &pa.ID
	}
	return Create(t, db, r)
}

// Notification seeds a pending certificate-expiry notification for the
// entity with a fresh token.
func Notification(t *testing.T, db *gorm.DB, entity fleet.EntityType, entityID uint64, daysUntilExpiry int) *notification.Notification {
	t.Helper()
	days := daysUntilExpiry
	return Create(t, db, &notification.Notification{
		NotificationType: notification.TypeCertificateExpiry,
		EntityType:       entity,
		EntityID:         entityID,
		CertificateType:  "mot",
		CertificateName:  "MOT Certificate",
		DaysUntilExpiry:  &days,
		EmailToken:       id.NewToken(),
		Status:           notification.StatusPending,
	})
}

// Reload reads v back by primary key.
func Reload[T any](t *testing.T, db *gorm.DB, v *T, pk uint64) *T {
	t.Helper()
	if err := db.First(v, pk).Error; err != nil {
		t.Fatalf("reload %T(%d): %v", v, pk, err)
	}
	return v
}
