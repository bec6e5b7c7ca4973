package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shradha102005/KhetBox/internal/config"
	"github.com/Shradha102005/KhetBox/internal/models"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// client paho 客户端中用到的部分
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Publisher 将每轮广播 payload 镜像到 MQTT（QoS 0，不保留）
type Publisher struct {
	client client
	topic  string
	logger *zap.Logger
}

// Topic <prefix>/<device_id>/telemetry
func Topic(prefix, deviceID string) string {
	return fmt.Sprintf("%s/%s/telemetry", prefix, deviceID)
}

// NewPublisher 连接 broker
func NewPublisher(cfg config.MQTTConfig, deviceID string, logger *zap.Logger) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(publishTimeout)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	c := pahomqtt.NewClient(opts)
	if token := c.Connect(); !token.WaitTimeout(publishTimeout) || token.Error() != nil {
		err := token.Error()
		if err == nil {
			err = fmt.Errorf("timed out after %s", publishTimeout)
		}
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return newPublisher(c, Topic(cfg.TopicPrefix, deviceID), logger), nil
}

func newPublisher(c client, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{client: c, topic: topic, logger: logger}
}

func (p *Publisher) TopicName() string { return p.topic }

// Publish 发布 payload；等待确认不超过 ctx 截止时间与 publishTimeout 中较早者
func (p *Publisher) Publish(ctx context.Context, payload models.BroadcastPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	token := p.client.Publish(p.topic, 0, false, b)

	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.topic, err)
	}
	return nil
}

// Close 断开连接
func (p *Publisher) Close() {
	p.client.Disconnect(250)
	p.logger.Info("MQTT publisher disconnected", zap.String("topic", p.topic))
}
