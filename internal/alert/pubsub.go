package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// PubSubAlerter publishes alerts to a Google Cloud Pub/Sub topic as JSON
// payloads, for deployments where a downstream consumer fans the message out.
type PubSubAlerter struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSub connects to the topic. Unlike SMTP, a Pub/Sub misconfiguration
// is surfaced at construction so the app can fall back to a different
// provider.
func NewPubSub(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubAlerter, error) {
	if projectID == "" || topicID == "" {
		return nil, fmt.Errorf("pubsub alerting requires project_id and topic_id")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &PubSubAlerter{
		client: client,
		topic:  client.Topic(topicID),
		logger: logger,
	}, nil
}

type alertPayload struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// Send publishes one alert message, reporting success as a boolean.
func (p *PubSubAlerter) Send(subject, body string) bool {
	if p == nil || p.topic == nil {
		return false
	}
	data, err := json.Marshal(alertPayload{
		Subject: subject,
		Body:    body,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		p.logger.Warn("marshal alert payload", zap.Error(err))
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		p.logger.Warn("alert publish failed",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return false
	}
	p.logger.Info("alert published",
		zap.String("subject", subject),
		zap.String("message_id", id),
	)
	return true
}

// Close releases the Pub/Sub client.
func (p *PubSubAlerter) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	p.topic.Stop()
	return p.client.Close()
}
