// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/quat_visualizer/internal/config"
	"github.com/relabs-tech/quat_visualizer/internal/logging"
	"github.com/relabs-tech/quat_visualizer/internal/source"
)

// Publisher is the part of an MQTT client RunMockPublisher needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// RunMockPublisher connects to the configured broker and publishes mock
// board records on TOPIC_FRAMES until ctx is cancelled.
func RunMockPublisher(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log = logging.Component(log, "mock-publish")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Info().Str("broker", cfg.MQTTBroker).Str("topic", cfg.TopicFrames).Msg("mock-publish: connected")

	mock := source.NewMock(time.Duration(cfg.MockInterval) * time.Millisecond)
	return publishLines(ctx, client, cfg.TopicFrames, mock, log)
}

// publishLines copies every line of t to topic until ctx is cancelled or t
// fails.
func publishLines(ctx context.Context, client Publisher, topic string, t source.Transport, log zerolog.Logger) error {
	if err := t.Open(); err != nil {
		return err
	}
	defer t.Close()
	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	var published uint64
	for {
		line, err := t.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Uint64("published", published).Msg("mock-publish: stopped")
				return nil
			}
			return err
		}

		token := client.Publish(topic, 0, false, line)
		if token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Msg("mock-publish: publish error")
			continue
		}
		published++
		log.Trace().Bytes("payload", line).Msg("mock-publish: published")
	}
}
