// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"fmt"
	"sync"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MQTT receives records published on a topic, one record per message. It
// lets the board (or mock-publish) run on another machine.
type MQTT struct {
	broker   string
	topic    string
	clientID string
	log      zerolog.Logger
	// newClient is mqtt.NewClient outside tests.
	newClient func(*mqtt.ClientOptions) mqtt.Client

	mu         sync.Mutex
	client     mqtt.Client
	msgs       chan []byte
	done       chan struct{}
	subscribed atomic.Bool
}

// NewMQTT prepares a subscriber. The client id gets a random suffix so
// several viewers can share a broker.
func NewMQTT(broker, topic, clientID string, log zerolog.Logger) *MQTT {
	return &MQTT{
		broker:    broker,
		topic:     topic,
		clientID:  fmt.Sprintf("%s-%s", clientID, uuid.NewString()[:8]),
		log:       log.With().Str("component", "mqtt").Logger(),
		newClient: mqtt.NewClient,
	}
}

func (m *MQTT) String() string {
	return fmt.Sprintf("mqtt topic %s on %s", m.topic, m.broker)
}

// start creates the hand-off channels; the buffer of one message keeps
// paho's router from stalling while the loop is drawing.
func (m *MQTT) start() {
	m.msgs = make(chan []byte, 1)
	m.done = make(chan struct{})
}

// stop undoes start after a failed Open, unless Close already did.
func (m *MQTT) stop(done chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != done {
		return
	}
	close(m.done)
	m.msgs, m.done = nil, nil
}

func (m *MQTT) Open() error {
	m.mu.Lock()
	if m.client != nil {
		m.mu.Unlock()
		return nil
	}
	m.start()
	done := m.done
	m.mu.Unlock()

	opts := mqtt.NewClientOptions().
		AddBroker(m.broker).
		SetClientID(m.clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			m.log.Warn().Err(err).Msg("mqtt: connection lost, reconnecting")
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			// the first connect is handled by Open itself
			if !m.subscribed.Load() {
				return
			}
			if token := c.Subscribe(m.topic, 0, m.handle); token.Wait() && token.Error() != nil {
				m.log.Error().Err(token.Error()).Str("topic", m.topic).Msg("mqtt: resubscribe failed")
				return
			}
			m.log.Info().Str("topic", m.topic).Msg("mqtt: resubscribed")
		})

	client := m.newClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		m.stop(done)
		return token.Error()
	}
	m.log.Info().Str("broker", m.broker).Msg("mqtt: connected")

	token := client.Subscribe(m.topic, 0, m.handle)
	token.Wait()
	if token.Error() != nil {
		client.Disconnect(250)
		m.stop(done)
		return token.Error()
	}

	// Close may have run while connecting; the client is then ours to drop
	m.mu.Lock()
	if m.done != done {
		m.mu.Unlock()
		client.Disconnect(250)
		return ErrNotOpen
	}
	m.client = client
	m.mu.Unlock()

	m.subscribed.Store(true)
	m.log.Info().Str("topic", m.topic).Msg("mqtt: subscribed")
	return nil
}

// handle runs on paho's goroutine and blocks until the loop takes the
// payload or the transport is closed.
func (m *MQTT) handle(_ mqtt.Client, msg mqtt.Message) {
	m.mu.Lock()
	msgs, done := m.msgs, m.done
	m.mu.Unlock()
	if msgs == nil {
		return
	}

	payload := append([]byte(nil), msg.Payload()...)
	select {
	case msgs <- payload:
	case <-done:
	}
}

func (m *MQTT) ReadLine() ([]byte, error) {
	m.mu.Lock()
	msgs, done := m.msgs, m.done
	m.mu.Unlock()

	if msgs == nil {
		return nil, ErrNotOpen
	}
	select {
	case p := <-msgs:
		return trimEOL(p), nil
	case <-done:
		return nil, ErrNotOpen
	}
}

func (m *MQTT) Close() error {
	m.mu.Lock()
	if m.done == nil {
		m.mu.Unlock()
		return nil
	}
	close(m.done)
	client := m.client
	m.msgs, m.done, m.client = nil, nil, nil
	m.subscribed.Store(false)
	m.mu.Unlock()

	// Disconnect waits for paho's router, which may be inside handle
	if client != nil {
		client.Disconnect(250)
		m.log.Info().Msg("mqtt: disconnected")
	}
	return nil
}
