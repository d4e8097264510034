// Package emitter publishes classification results to an MQTT broker so
// other devices on the site network can react without polling the camera.
package emitter

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"shapecam/internal/classifier"
)

// MQTTEmitter publishes each successful classification as JSON. Publishing
// is best-effort: a broker outage never fails the classification request.
type MQTTEmitter struct {
	client mqtt.Client
	broker string
	topic  string
	log    *logrus.Logger

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewMQTT builds an emitter for the given broker address and topic.
func NewMQTT(broker, clientID, topic string, log *logrus.Logger) *MQTTEmitter {
	e := &MQTTEmitter{broker: broker, topic: topic, log: log}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", broker))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		e.mu.Lock()
		e.connected = true
		e.mu.Unlock()
		log.WithFields(logrus.Fields{"broker": broker, "client_id": clientID}).
			Info("mqtt connected")
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.mu.Lock()
		e.connected = false
		e.mu.Unlock()
		log.WithError(err).Warn("mqtt connection lost, auto-reconnecting")
	}

	e.client = mqtt.NewClient(opts)
	return e
}

// Connect establishes the broker connection, waiting up to five seconds.
func (e *MQTTEmitter) Connect() error {
	token := e.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	e.mu.Lock()
	e.connected = true
	e.mu.Unlock()
	return nil
}

// Publish sends one result at QoS 0.
func (e *MQTTEmitter) Publish(res *classifier.Result) error {
	e.mu.RLock()
	connected := e.connected
	e.mu.RUnlock()
	if !connected {
		e.countError()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(res)
	if err != nil {
		e.countError()
		return fmt.Errorf("marshal result: %w", err)
	}

	token := e.client.Publish(e.topic, 0, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		e.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		e.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"topic":      e.topic,
		"request_id": res.RequestID,
		"label":      res.Label,
	}).Debug("result published")
	return nil
}

// Disconnect closes the broker connection with a short grace period.
func (e *MQTTEmitter) Disconnect() {
	if e.client.IsConnected() {
		e.client.Disconnect(250)
		e.log.Info("mqtt disconnected")
	}
	e.mu.Lock()
	e.connected = false
	e.mu.Unlock()
}

// Stats reports publish counters for the health endpoint.
func (e *MQTTEmitter) Stats() (connected bool, published, errors uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected, e.published, e.errors
}

func (e *MQTTEmitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}
