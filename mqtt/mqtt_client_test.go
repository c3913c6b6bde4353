package mqtt

import (
	"context"
	"testing"

	"github.com/eclipse/paho.golang/paho"
)

type recordingHandler struct {
	topic    string
	received []string
}

func (rh *recordingHandler) MqttSubscribeTopic() string {
	return rh.topic
}

func (rh *recordingHandler) MqttHandle(pub *paho.Publish) {
	rh.received = append(rh.received, string(pub.Payload))
}

func TestNewMqttClient(t *testing.T) {
	mc, err := NewMqttClient("mqtt://127.0.0.1:1883", "xmas-test")
	if err != nil {
		t.Fatalf("NewMqttClient returned err: %v", err)
	}
	if len(mc.config.ServerUrls) != 1 || mc.config.ServerUrls[0].Host != "127.0.0.1:1883" {
		t.Errorf("got server urls %v", mc.config.ServerUrls)
	}
	if mc.config.ClientConfig.ClientID != "xmas-test" {
		t.Errorf("got client id %s", mc.config.ClientConfig.ClientID)
	}

	_, err = NewMqttClient("://bad", "xmas-test")
	if err == nil {
		t.Error("got nil error for a bad broker url")
	}
}

func TestPublishNotConnected(t *testing.T) {
	mc, err := NewMqttClient("mqtt://127.0.0.1:1883", "xmas-test")
	if err != nil {
		t.Fatal(err)
	}

	if err := mc.Publish("xmas/lights/state", []byte("1")); err == nil {
		t.Error("got nil error publishing without a connection")
	}
	if err := mc.Disconnect(context.Background()); err != nil {
		t.Errorf("Disconnect without a connection returned err: %v", err)
	}
}

func TestOnPublishRecv(t *testing.T) {
	mc, err := NewMqttClient("mqtt://127.0.0.1:1883", "xmas-test")
	if err != nil {
		t.Fatal(err)
	}
	set := &recordingHandler{topic: "xmas/lights/set"}
	toggle := &recordingHandler{topic: "xmas/lights/toggle"}
	mc.handlers = map[string]MqttHandler{
		set.topic:    set,
		toggle.topic: toggle,
	}

	handled, err := mc.onPublishRecv(paho.PublishReceived{
		Packet: &paho.Publish{Topic: "xmas/lights/set", Payload: []byte("255")},
	})
	if err != nil || !handled {
		t.Errorf("set message: handled %v err %v", handled, err)
	}

	handled, err = mc.onPublishRecv(paho.PublishReceived{
		Packet: &paho.Publish{Topic: "xmas/other", Payload: []byte("1")},
	})
	if err != nil || handled {
		t.Errorf("unknown topic: handled %v err %v", handled, err)
	}

	if len(set.received) != 1 || set.received[0] != "255" {
		t.Errorf("set handler got %v", set.received)
	}
	if len(toggle.received) != 0 {
		t.Errorf("toggle handler got %v", toggle.received)
	}
}
