package adapter

import "context"

// PushNotification is the payload handed to the push sender. Data carries
// routing hints for the mobile client (job id and outcome).
type PushNotification struct {
	Title string
	Body  string
	Data  map[string]string
}

// PushSender delivers a notification to a device token. Delivery is best
// effort; callers log and swallow errors.
type PushSender interface {
	Send(ctx context.Context, token string, n PushNotification) error
}
