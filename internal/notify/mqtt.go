package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const mqttConnectTimeout = 5 * time.Second

// publisher is the part of mqtt.Client the sender needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSender publishes notifications as JSON to a broker topic.
type MQTTSender struct {
	client publisher
	topic  string
	close  func()
}

// DialMQTT connects to broker and returns a sender publishing on topic.
func DialMQTT(broker, clientID, topic string) (*MQTTSender, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).WithField("broker", broker).Warn("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}

	log.WithFields(log.Fields{"broker": broker, "topic": topic}).Info("Connected to MQTT broker")
	return &MQTTSender{
		client: client,
		topic:  topic,
		close:  func() { client.Disconnect(250) },
	}, nil
}

func (s *MQTTSender) Name() string { return "mqtt" }

// Send publishes n with QoS 1 and waits for the broker acknowledgement.
func (s *MQTTSender) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	token := s.client.Publish(s.topic, 1, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish: %w", ctx.Err())
	}
}

// Close disconnects from the broker.
func (s *MQTTSender) Close() error {
	if s.close == nil {
		return errors.New("mqtt sender not connected")
	}
	s.close()
	return nil
}
