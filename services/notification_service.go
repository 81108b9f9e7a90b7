package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"studyNotesAPI/internal/notification"
)

// NotificationService records goal-met and streak notifications and hands
// them to the dispatcher for push delivery.
type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	service := &NotificationService{db: db}
	service.dispatcher = NewNotificationDispatcher(service)
	return service
}

// SetPushProvider injects the real FCM provider from main.go. Without one
// the notifications still land in the inbox, just without a push.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

// NotifyGoalMet records today's goal-met event for the user. Weekly streak
// marks get the louder milestone wording.
func (s *NotificationService) NotifyGoalMet(ctx context.Context, firebaseUID string, streak int) error {
	notifType := notification.TypeGoalMet
	title := "Daily goals met!"
	body := fmt.Sprintf("You hit today's goals. Current streak: %d day(s).", streak)
	if streak > 0 && streak%7 == 0 {
		notifType = notification.TypeStreakMilestone
		title = fmt.Sprintf("%d-day streak!", streak)
		body = fmt.Sprintf("You've met your daily goals %d days in a row. Keep it going!", streak)
	}

	notif := &notification.Notification{
		UserID: firebaseUID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   map[string]any{"streak": streak},
	}

	dataJSON, _ := json.Marshal(notif.Data)
	err := s.db.QueryRow(ctx, `
		INSERT INTO notifications (firebase_uid, type, title, body, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, notif.UserID, notif.Type, notif.Title, notif.Body, dataJSON).Scan(&notif.ID, &notif.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	tokens, err := s.getDeviceTokens(ctx, firebaseUID)
	if err != nil {
		return err
	}

	s.dispatcher.DispatchNotification(ctx, notif, tokens)
	return nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, firebaseUID string, limit int) (*notification.NotificationListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, firebase_uid, type, title, body, data, is_read, created_at
		FROM notifications
		WHERE firebase_uid = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, firebaseUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	resp := &notification.NotificationListResponse{Notifications: []*notification.Notification{}}
	for rows.Next() {
		n := &notification.Notification{}
		var dataJSON []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &dataJSON, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		json.Unmarshal(dataJSON, &n.Data)
		resp.Notifications = append(resp.Notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE firebase_uid = $1 AND is_read = false
	`, firebaseUID).Scan(&resp.UnreadCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return resp, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, firebaseUID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true WHERE firebase_uid = $1 AND is_read = false
	`, firebaseUID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// RegisterDevice stores a push token. Re-registering the same token just
// refreshes its owner and platform.
func (s *NotificationService) RegisterDevice(ctx context.Context, firebaseUID string, req notification.RegisterDeviceRequest) error {
	if req.Token == "" {
		return fmt.Errorf("device token is required")
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (firebase_uid, token, platform, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE SET
			firebase_uid = $1,
			platform = $3,
			updated_at = NOW()
	`, firebaseUID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) getDeviceTokens(ctx context.Context, firebaseUID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `
		SELECT token, platform FROM device_tokens WHERE firebase_uid = $1
	`, firebaseUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
