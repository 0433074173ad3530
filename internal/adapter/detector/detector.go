package detector

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
)

const procedure = "create_certificate_notifications"

// ErrMissingFunction is returned when the detection routine has not been
// installed in the database.
var ErrMissingFunction = apperr.New(apperr.KindConfiguration,
	"expiry detection function is missing; apply the certificate-notification migration")

// SQLDetector runs the database routine that inserts certificate-expiry
// notifications.
type SQLDetector struct {
	db     *gorm.DB
	driver string
}

var _ notification.Detector = (*SQLDetector)(nil)

func New(db *gorm.DB, driver string) *SQLDetector { return &SQLDetector{db: db, driver: driver} }

func (d *SQLDetector) CreateCertificateNotifications(ctx context.Context) error {
	stmt := "SELECT " + procedure + "()"
	if d.driver == "mysql" {
		stmt = "CALL " + procedure + "()"
	}
	err := d.db.WithContext(ctx).Exec(stmt).Error
	if err == nil {
		return nil
	}
	if missingRoutine(err) {
		return apperr.Wrap(apperr.KindConfiguration, err, ErrMissingFunction.Message)
	}
	return apperr.Upstream(err, "run expiry detection")
}

const (
	pgUndefinedFunction = "42883"
	mysqlSPDoesNotExist = 1305
)

// missingRoutine reports whether the driver says the routine itself is
// absent. Missing tables or columns inside the routine are store errors.
func missingRoutine(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedFunction
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlSPDoesNotExist
	}
	return false
}
