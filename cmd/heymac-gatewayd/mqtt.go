// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// rxMessage is the JSON shape published for every frame the MAC
// delivers: the frame's payload bytes plus the link quality the modem
// measured.
type rxMessage struct {
	Payload []byte `json:"payload"`
	Snr     int    `json:"snr"`
	Rssi    int    `json:"rssi"`
}

// broker holds one persistent connection to an MQTT broker, the same
// always-reconnect client the teacher's mqttradio builds, trimmed down
// to this gateway's single rx-topic/tx-topic-per-radio shape instead of
// the teacher's generic module-routing bus.
type broker struct {
	conn mqtt.Client
}

func newBroker(conf MqttConfig, debug func(string, ...interface{})) (*broker, error) {
	if debug != nil {
		debug("mqtt: connecting to %s:%d", conf.Host, conf.Port)
	}
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", conf.Host, conf.Port))
	opts.ClientID = "heymac-gatewayd"
	opts.Username = conf.User
	opts.Password = conf.Password
	opts.AutoReconnect = true

	c := mqtt.NewClient(opts)
	if token := c.Connect(); !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("mqtt: connected")
	return &broker{conn: c}, nil
}

// publishRx publishes one received frame as JSON to topic.
func (b *broker) publishRx(topic string, payload []byte, snr, rssi int) {
	body, _ := json.Marshal(rxMessage{Payload: payload, Snr: snr, Rssi: rssi})
	b.conn.Publish(topic, 1, false, body)
}

// subscribeTx subscribes to topic, decoding each message's "payload"
// field and handing the raw bytes to onFrame.
func (b *broker) subscribeTx(topic string, onFrame func(payload []byte)) error {
	handler := func(_ mqtt.Client, m mqtt.Message) {
		var msg rxMessage
		if err := json.Unmarshal(m.Payload(), &msg); err != nil {
			log.Printf("mqtt: cannot decode message on %s: %v", topic, err)
			return
		}
		onFrame(msg.Payload)
	}
	token := b.conn.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(2*time.Second) || token.Error() != nil {
		return token.Error()
	}
	return nil
}
