package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/nftopia/stellar-auth/ports"
)

const (
	loginTopic  = "stellarauth.login"
	logoutTopic = "stellarauth.logout"
)

// AuthEvent is the payload published on login and logout.
type AuthEvent struct {
	Subject string `json:"subject"`
	TokenID string `json:"token_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, subject string, tokenID string) error {
	return p.publish(loginTopic, subject, tokenID)
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, subject string, tokenID string) error {
	return p.publish(logoutTopic, subject, tokenID)
}

func (p *WatermillPublisher) publish(topic, subject, tokenID string) error {
	payload, err := json.Marshal(AuthEvent{
		Subject: subject,
		TokenID: tokenID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(tokenID, payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
