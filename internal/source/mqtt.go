package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bin_monitoring/internal/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS            = 1
	mqttConnectTimeout = 10 * time.Second
	mqttWaitTimeout    = 5 * time.Second
)

// MQTTSource subscribes to a topic filter such as bins/+/fill. The segment matched by '+'
// is the device id.
type MQTTSource struct {
	broker   string
	clientID string
	topic    string
	log      *logger.Logger
}

func NewMQTTSource(broker, clientID, topic string, log *logger.Logger) *MQTTSource {
	if log == nil {
		log = logger.Nop()
	}
	return &MQTTSource{broker: broker, clientID: clientID, topic: topic, log: log}
}

func (s *MQTTSource) Name() string { return "mqtt:" + s.topic }

func (s *MQTTSource) Run(ctx context.Context, sink Sink) error {
	handler := s.handler(ctx, sink)
	opts := paho.NewClientOptions().
		AddBroker(s.broker).
		SetClientID(s.clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c paho.Client) {
			// Resubscribe after every (re)connect.
			token := c.Subscribe(s.topic, mqttQoS, handler)
			if token.WaitTimeout(mqttWaitTimeout) && token.Error() != nil {
				s.log.Errorw("mqtt_subscribe_failed", "topic", s.topic, "err", token.Error())
				return
			}
			s.log.Infow("mqtt_subscribed", "broker", s.broker, "topic", s.topic)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		s.log.Warnw("mqtt_connect_pending", "broker", s.broker)
	} else if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}

	<-ctx.Done()
	client.Unsubscribe(s.topic).WaitTimeout(time.Second)
	client.Disconnect(1000)
	return nil
}

func (s *MQTTSource) handler(ctx context.Context, sink Sink) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		device := deviceFromTopic(s.topic, msg.Topic())
		if _, err := sink.Ingest(ctx, device, msg.Payload()); err != nil {
			s.log.Debugw("mqtt_reading_rejected", "topic", msg.Topic(), "device_id", device, "err", err)
		}
	}
}

// deviceFromTopic returns the topic segment under the filter's first '+', or the last segment.
func deviceFromTopic(filter, topic string) string {
	fs := strings.Split(filter, "/")
	ts := strings.Split(topic, "/")
	for i, seg := range fs {
		if seg == "+" && i < len(ts) {
			return ts[i]
		}
	}
	return ts[len(ts)-1]
}
