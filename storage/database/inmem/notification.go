package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range notifs {
		notif := notifs[i]
		repo.db.table[notif.ID] = &notif
	}
	return nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if notif, ok := repo.db.table[id]; ok {
		return *notif, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) ListNotifications(ctx context.Context, recipientID, recipientType string) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, notif := range repo.db.table {
		if notif.RecipientID == recipientID && notif.RecipientType == recipientType && !notif.IsDeleted {
			notifs = append(notifs, *notif)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, recipientID, recipientType string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, notif := range repo.db.table {
		if notif.RecipientID == recipientID && notif.RecipientType == recipientType && !notif.IsRead && !notif.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) SetRead(ctx context.Context, id string, read bool) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	notif, ok := repo.db.table[id]
	if !ok {
		return notification.ErrNotFound
	}
	notif.IsRead = read
	return nil
}

func (repo *notificationRepository) SetAllRead(ctx context.Context, recipientID, recipientType string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, notif := range repo.db.table {
		if notif.RecipientID == recipientID && notif.RecipientType == recipientType && !notif.IsDeleted {
			notif.IsRead = true
		}
	}
	return nil
}

func (repo *notificationRepository) SetDeleted(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	notif, ok := repo.db.table[id]
	if !ok {
		return notification.ErrNotFound
	}
	notif.IsDeleted = true
	return nil
}
