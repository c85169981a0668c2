package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/internal/repository"
	"google.golang.org/api/option"
)

// Dispatcher persists offline notifications and pushes them over FCM.
// User-level settings (notify_messages, mute_all_until) are checked here;
// per-conversation mutes are the caller's job.
type Dispatcher struct {
	client           *messaging.Client
	userRepo         *repository.UserRepository
	notificationRepo *repository.NotificationRepository
}

// NewDispatcher creates a new FCM-backed notification dispatcher
func NewDispatcher(credentialsFile string, userRepo *repository.UserRepository, notificationRepo *repository.NotificationRepository) (*Dispatcher, error) {
	d := &Dispatcher{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}

	if credentialsFile == "" {
		log.Println("⚠️ Firebase credentials not provided, push notifications disabled")
		return d, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		// Log warning instead of error to not block server startup
		log.Printf("⚠️ Failed to initialize Firebase app: %v (push notifications disabled)", err)
		return d, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️ Failed to get messaging client: %v", err)
		return d, nil
	}

	log.Println("✅ Firebase FCM initialized")
	d.client = client
	return d, nil
}

// Create records a notification for the recipient and pushes it to their
// devices. Returns nil without dispatching when the recipient has message
// notifications off or everything muted.
func (d *Dispatcher) Create(ctx context.Context, recipientID uuid.UUID, kind, text string, actorID uuid.UUID, conversationID *uuid.UUID) error {
	user, err := d.userRepo.FindByID(recipientID)
	if err != nil {
		return err
	}
	if !user.NotifyMessages {
		return nil
	}
	if user.MuteAllUntil != nil && user.MuteAllUntil.After(time.Now()) {
		return nil
	}

	actor, err := d.userRepo.FindByID(actorID)
	if err != nil {
		return err
	}

	if err := d.notificationRepo.Create(&model.Notification{
		RecipientID:    recipientID,
		Kind:           kind,
		Text:           text,
		ActorID:        actorID,
		ConversationID: conversationID,
	}); err != nil {
		return err
	}

	return d.push(ctx, recipientID, actor.Name, kind, text, conversationID)
}

// push sends the FCM multicast to every registered device of the recipient
func (d *Dispatcher) push(ctx context.Context, recipientID uuid.UUID, title, kind, body string, conversationID *uuid.UUID) error {
	if d.client == nil {
		return nil
	}

	devices, err := d.userRepo.GetUserDevices(recipientID)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(devices))
	for _, dev := range devices {
		tokens = append(tokens, dev.FCMToken)
	}

	data := map[string]string{
		"type": kind,
	}
	if conversationID != nil {
		data["conversation_id"] = conversationID.String()
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ClickAction: "FLUTTER_NOTIFICATION_CLICK",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	br, err := d.client.SendMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	if br.FailureCount > 0 {
		// Log failures
		for idx, resp := range br.Responses {
			if !resp.Success {
				log.Printf("⚠️ FCM failure for token %s: %v", tokens[idx], resp.Error)
			}
		}
	}

	return nil
}
