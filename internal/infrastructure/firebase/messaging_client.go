package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"zorkdi/internal/domain/service"
)

// MessagingClient sends push notifications through Firebase Cloud Messaging.
type MessagingClient struct {
	client *messaging.Client
}

func NewMessagingClient(client *messaging.Client) service.PushNotifier {
	return &MessagingClient{
		client: client,
	}
}

func (m *MessagingClient) Send(ctx context.Context, n service.PushNotification) error {
	if n.Token == "" {
		return fmt.Errorf("missing device token")
	}

	msg := &messaging.Message{
		Token: n.Token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
			},
		},
	}

	if _, err := m.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	return nil
}
