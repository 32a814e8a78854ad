package ports

import "context"

// EventPublisher publishes auth lifecycle events to notify other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, subject string, tokenID string) error
	PublishLogout(ctx context.Context, subject string, tokenID string) error
}
