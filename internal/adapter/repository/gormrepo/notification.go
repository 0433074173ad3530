package gormrepo

import (
	"context"
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"

	"gorm.io/gorm"
)

type NotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

var _ notification.Repository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	err := r.db.WithContext(ctx).Create(n).Error
	if isDuplicate(err) {
		return apperr.Wrap(apperr.KindConflict, err, "notification token already issued")
	}
	return apperr.Upstream(err, "create notification")
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uint64) (*notification.Notification, error) {
	var out notification.Notification
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFoundOr(err, notification.ErrNotFound, "load notification")
	}
	return &out, nil
}

func (r *NotificationRepository) GetByToken(ctx context.Context, token string) (*notification.Notification, error) {
	var out notification.Notification
	if err := r.db.WithContext(ctx).Where("email_token = ?", token).First(&out).Error; err != nil {
		return nil, notFoundOr(err, notification.ErrNotFound, "load notification by token")
	}
	return &out, nil
}

func (r *NotificationRepository) ListPending(ctx context.Context, filter *notification.Type) ([]notification.Notification, error) {
	var out []notification.Notification
	q := r.db.WithContext(ctx).Where("status = ?", notification.StatusPending)
	if filter != nil {
		q = q.Where("notification_type = ?", *filter)
	}
	err := q.Order("CASE WHEN expiry_date IS NULL THEN 1 ELSE 0 END").
		Order("expiry_date ASC").
		Order("id ASC").
		Find(&out).Error
	return out, apperr.Upstream(err, "list pending notifications")
}

// Transition is a conditional update: only a pending row moves, so the
// second of two racing callers sees zero rows affected.
func (r *NotificationRepository) Transition(ctx context.Context, id uint64, to notification.Status, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("id = ? AND status = ?", id, notification.StatusPending).
		Updates(map[string]any{"status": to, "resolved_at": at})
	if res.Error != nil {
		return false, apperr.Upstream(res.Error, "transition notification")
	}
	return res.RowsAffected > 0, nil
}
