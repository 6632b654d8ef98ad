// Zaparoo Label
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Label.
//
// Zaparoo Label is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Label is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Label.  If not, see <http://www.gnu.org/licenses/>.

// Package mqtt reads scans published to an MQTT topic by networked
// scanners or scanner gateways. Each message holds one or more serials,
// one per line.
package mqtt

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-label/pkg/readers"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DriverID = "mqtt"

	openTimeout       = 5 * time.Second
	disconnectQuiesce = 250
	// QoS 1 so a scan is not lost across a reconnect.
	subscribeQoS = 1
)

type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

var DefaultClientFactory ClientFactory = mqtt.NewClient

type Reader struct {
	client        mqtt.Client
	clientFactory ClientFactory
	clock         clockwork.Clock
	done          chan struct{}
	device        config.ReadersConnect
	topic         string
	mu            syncutil.RWMutex
}

func NewReader() *Reader {
	return &Reader{
		clientFactory: DefaultClientFactory,
		clock:         clockwork.NewRealClock(),
	}
}

func (*Reader) Metadata() readers.DriverMetadata {
	return readers.DriverMetadata{
		ID:          DriverID,
		Description: "Scans published to an MQTT topic",
	}
}

func (*Reader) IDs() []string {
	return []string{DriverID}
}

func (r *Reader) Open(device config.ReadersConnect, scans chan<- readers.Scan) error {
	if !slices.Contains(r.IDs(), device.Driver) {
		return errors.New("invalid reader id: " + device.Driver)
	}

	ep, err := ParsePath(device.Path)
	if err != nil {
		return fmt.Errorf("failed to parse MQTT path: %w", err)
	}

	done := make(chan struct{})
	handler := r.messageHandler(device.ConnectionString(), scans, done)

	opts := NewClientOptions(ep)
	// subscribing on every connect restores the subscription after a
	// reconnect
	opts.OnConnect = func(client mqtt.Client) {
		log.Info().Msgf("mqtt reader: connected to %s", ep.Broker)
		token := client.Subscribe(ep.Topic, subscribeQoS, handler)
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Msgf("mqtt reader: failed to subscribe to %s", ep.Topic)
			return
		}
		log.Info().Msgf("mqtt reader: subscribed to topic %s", ep.Topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt reader: connection lost")
	}

	client := r.clientFactory(opts)
	token := client.Connect()
	if !token.WaitTimeout(openTimeout) {
		client.Disconnect(0)
		return errors.New("failed to connect to MQTT broker: connection timeout")
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	r.mu.Lock()
	r.client = client
	r.device = device
	r.topic = ep.Topic
	r.done = done
	r.mu.Unlock()

	log.Info().Msgf("mqtt reader: opened connection to %s (topic: %s)", ep.Broker, ep.Topic)
	return nil
}

func (r *Reader) messageHandler(
	source string,
	scans chan<- readers.Scan,
	done <-chan struct{},
) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		for line := range strings.Lines(string(msg.Payload())) {
			value := strings.TrimSpace(line)
			if value == "" {
				continue
			}
			log.Debug().Str("value", value).Msg("mqtt scan received")
			select {
			case scans <- readers.Scan{Source: source, Value: value, Time: r.clock.Now()}:
			case <-done:
				return
			}
		}
	}
}

func (r *Reader) Close() error {
	r.mu.Lock()
	client := r.client
	done := r.done
	r.client = nil
	r.done = nil
	r.mu.Unlock()

	if done != nil {
		close(done)
	}
	if client != nil && client.IsConnected() {
		log.Debug().Msg("mqtt reader: disconnecting")
		client.Disconnect(disconnectQuiesce)
	}
	return nil
}

func (r *Reader) Device() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.device.ConnectionString()
}

// Connected stays true while paho is reconnecting, so the manager does not
// open a second client for the same topic.
func (r *Reader) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client != nil
}

func (r *Reader) Info() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return "MQTT: " + r.topic
}
