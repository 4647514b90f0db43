package notification

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

type (
	Repository interface {
		CreateNotifications(ctx context.Context, notifs []Notification) error
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		// ListNotifications returns a recipient's notifications, newest first,
		// excluding soft-deleted ones.
		ListNotifications(ctx context.Context, recipientID, recipientType string) ([]Notification, error)
		CountUnread(ctx context.Context, recipientID, recipientType string) (int, error)
		SetRead(ctx context.Context, id string, read bool) error
		SetAllRead(ctx context.Context, recipientID, recipientType string) error
		SetDeleted(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, logger: logger}
}

// Notify replicates an event into exactly one notification row per recipient,
// all sharing the event's related id/type. Each copy is independently readable
// and deletable afterwards; the event itself is never re-fanned-out.
func (svc *Service) Notify(ctx context.Context, actor core.Actor, ev Event) ([]Notification, error) {
	now := time.Now().UTC()
	notifs := make([]Notification, 0, len(ev.Recipients))
	emails := make([]*core.EmailMessage, 0)
	for _, rcpt := range ev.Recipients {
		notifs = append(notifs, Notification{
			ID:            uuid.New().String(),
			RecipientID:   rcpt.ID,
			RecipientType: rcpt.Type,
			SenderID:      actor.ID,
			SenderType:    actor.Type,
			SenderName:    actor.Name,
			Type:          ev.Type,
			Title:         ev.Title,
			Message:       ev.Message,
			RelatedID:     ev.RelatedID,
			RelatedType:   ev.RelatedType,
			Metadata:      ev.Metadata,
			CreatedAt:     now,
		})
		if rcpt.Email != "" {
			emails = append(emails, &core.EmailMessage{
				To:      []mail.Address{{Address: rcpt.Email}},
				Subject: ev.Title,
				Body:    ev.Message,
			})
		}
	}

	if err := svc.repo.CreateNotifications(ctx, notifs); err != nil {
		return nil, err
	}
	if len(emails) > 0 && svc.mailSvc != nil {
		svc.mailSvc.SendMessages(emails...)
	}
	return notifs, nil
}

func (svc *Service) Query(ctx context.Context, actor core.Actor) ([]Notification, error) {
	return svc.repo.ListNotifications(ctx, actor.ID, actor.Type)
}

func (svc *Service) UnreadCount(ctx context.Context, actor core.Actor) (int, error) {
	return svc.repo.CountUnread(ctx, actor.ID, actor.Type)
}

// MarkRead flips the read flag on the actor's own copy; siblings from the same
// fan-out are unaffected.
func (svc *Service) MarkRead(ctx context.Context, actor core.Actor, id string) (Notification, error) {
	notif, err := svc.getOwn(ctx, actor, id)
	if err != nil {
		return Notification{}, err
	}
	if err = svc.repo.SetRead(ctx, notif.ID, true); err != nil {
		return Notification{}, err
	}
	notif.IsRead = true
	return notif, nil
}

func (svc *Service) MarkAllRead(ctx context.Context, actor core.Actor) error {
	return svc.repo.SetAllRead(ctx, actor.ID, actor.Type)
}

// Delete soft-deletes the actor's own copy; the row is kept, only flagged.
func (svc *Service) Delete(ctx context.Context, actor core.Actor, id string) error {
	notif, err := svc.getOwn(ctx, actor, id)
	if err != nil {
		return err
	}
	return svc.repo.SetDeleted(ctx, notif.ID)
}

func (svc *Service) getOwn(ctx context.Context, actor core.Actor, id string) (Notification, error) {
	notif, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if notif.RecipientID != actor.ID || notif.IsDeleted {
		return Notification{}, ErrNotFound
	}
	return notif, nil
}
