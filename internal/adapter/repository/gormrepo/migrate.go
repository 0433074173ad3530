package gormrepo

import (
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/appointment"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/compliance"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/document"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/fleet"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/incident"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"

	"gorm.io/gorm"
)

// Models lists every table owned by this service in dependency order.
func Models() []any {
	return []any{
		&fleet.Employee{},
		&fleet.Vehicle{},
		&fleet.Driver{},
		&fleet.PassengerAssistant{},
		&fleet.Route{},
		&notification.Notification{},
		&appointment.Slot{},
		&appointment.Booking{},
		&compliance.Case{},
		&document.Requirement{},
		&document.UploadedFile{},
		&document.SubjectDocument{},
		&incident.Report{},
	}
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }
