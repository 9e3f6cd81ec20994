package service

import "context"

type PushNotification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// PushNotifier delivers one notification to one device token.
type PushNotifier interface {
	Send(ctx context.Context, notification PushNotification) error
}
