package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/notification"
)

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

type notificationRow struct {
	ID            string          `db:"id"`
	RecipientID   string          `db:"recipient_id"`
	RecipientType string          `db:"recipient_type"`
	SenderID      string          `db:"sender_id"`
	SenderType    string          `db:"sender_type"`
	SenderName    string          `db:"sender_name"`
	Type          string          `db:"type"`
	Title         string          `db:"title"`
	Message       string          `db:"message"`
	RelatedID     string          `db:"related_id"`
	RelatedType   string          `db:"related_type"`
	IsRead        bool            `db:"is_read"`
	IsDeleted     bool            `db:"is_deleted"`
	Metadata      json.RawMessage `db:"metadata"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r notificationRow) notification() notification.Notification {
	notif := notification.Notification{
		ID:            r.ID,
		RecipientID:   r.RecipientID,
		RecipientType: r.RecipientType,
		SenderID:      r.SenderID,
		SenderType:    r.SenderType,
		SenderName:    r.SenderName,
		Type:          r.Type,
		Title:         r.Title,
		Message:       r.Message,
		RelatedID:     r.RelatedID,
		RelatedType:   r.RelatedType,
		IsRead:        r.IsRead,
		IsDeleted:     r.IsDeleted,
		CreatedAt:     r.CreatedAt.UTC(),
	}
	if len(r.Metadata) > 0 {
		_ = json.Unmarshal(r.Metadata, &notif.Metadata)
	}
	return notif
}

func newNotificationRow(notif notification.Notification) (notificationRow, error) {
	row := notificationRow{
		ID:            notif.ID,
		RecipientID:   notif.RecipientID,
		RecipientType: notif.RecipientType,
		SenderID:      notif.SenderID,
		SenderType:    notif.SenderType,
		SenderName:    notif.SenderName,
		Type:          notif.Type,
		Title:         notif.Title,
		Message:       notif.Message,
		RelatedID:     notif.RelatedID,
		RelatedType:   notif.RelatedType,
		IsRead:        notif.IsRead,
		IsDeleted:     notif.IsDeleted,
		CreatedAt:     notif.CreatedAt,
	}
	if notif.Metadata != nil {
		data, err := json.Marshal(notif.Metadata)
		if err != nil {
			return row, errors.Wrap(err, "marshalling notification metadata")
		}
		row.Metadata = data
	}
	return row, nil
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification) error {
	const query = `
		INSERT INTO notification (id, recipient_id, recipient_type, sender_id, sender_type, sender_name,
		                          type, title, message, related_id, related_type, is_read, is_deleted, metadata, created_at)
		VALUES (:id, :recipient_id, :recipient_type, :sender_id, :sender_type, :sender_name,
		        :type, :title, :message, :related_id, :related_type, :is_read, :is_deleted, :metadata, :created_at)`

	rows := make([]notificationRow, 0, len(notifs))
	for _, notif := range notifs {
		row, err := newNotificationRow(notif)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if _, err := repo.db.NamedExecContext(ctx, query, rows); err != nil {
		return errors.Wrap(err, "inserting notifications")
	}
	return nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM notification WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return row.notification(), nil
}

func (repo *notificationRepository) ListNotifications(ctx context.Context, recipientID, recipientType string) ([]notification.Notification, error) {
	const query = `
		SELECT * FROM notification
		WHERE recipient_id = $1 AND recipient_type = $2 AND NOT is_deleted
		ORDER BY created_at DESC`

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, query, recipientID, recipientType); err != nil {
		return nil, errors.Wrap(err, "listing notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, row.notification())
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, recipientID, recipientType string) (int, error) {
	const query = `
		SELECT COUNT(*) FROM notification
		WHERE recipient_id = $1 AND recipient_type = $2 AND NOT is_read AND NOT is_deleted`

	var count int
	if err := repo.db.GetContext(ctx, &count, query, recipientID, recipientType); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return count, nil
}

func (repo *notificationRepository) SetRead(ctx context.Context, id string, read bool) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE notification SET is_read = $2 WHERE id = $1`, id, read)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (repo *notificationRepository) SetAllRead(ctx context.Context, recipientID, recipientType string) error {
	const query = `
		UPDATE notification SET is_read = TRUE
		WHERE recipient_id = $1 AND recipient_type = $2 AND NOT is_deleted`

	if _, err := repo.db.ExecContext(ctx, query, recipientID, recipientType); err != nil {
		return errors.Wrap(err, "marking all notifications read")
	}
	return nil
}

func (repo *notificationRepository) SetDeleted(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE notification SET is_deleted = TRUE WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notification.ErrNotFound
	}
	return nil
}
