package services

import (
	"context"
	"log"
	"sync"
	"time"

	"studyNotesAPI/internal/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher pushes notifications through a small in-memory
// worker queue so request handlers never wait on FCM.
type NotificationDispatcher struct {
	service      *NotificationService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

type DispatchJob struct {
	Notification *notification.Notification
	Tokens       []notification.DeviceToken
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		service:  service,
		workers:  3,
		jobQueue: make(chan *DispatchJob, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()
	return dispatcher
}

func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification

	if d.pushProvider == nil || len(job.Tokens) == 0 {
		log.Printf("Skipping push for notification %s: Tokens=%d, ProviderSet=%v",
			notif.ID, len(job.Tokens), d.pushProvider != nil)
		return
	}

	if err := d.pushProvider.SendPush(ctx, job.Tokens, notif.Title, notif.Body, notif.Data); err != nil {
		log.Printf("Push failed for user %s: %v", notif.UserID, err)
	}
}

// DispatchNotification queues the job; the inbox row is already committed so
// a full queue only costs the push.
func (d *NotificationDispatcher) DispatchNotification(ctx context.Context, notif *notification.Notification, tokens []notification.DeviceToken) {
	job := &DispatchJob{
		Notification: notif,
		Tokens:       tokens,
	}

	select {
	case d.jobQueue <- job:
	default:
		log.Printf("Failed to queue notification %s: queue full", notif.ID)
	}
}
