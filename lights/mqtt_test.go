package lights

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/paho"
)

type fakePublisher struct {
	topics   []string
	payloads []string
	err      error
}

func (fp *fakePublisher) Publish(topic string, payload []byte) error {
	fp.topics = append(fp.topics, topic)
	fp.payloads = append(fp.payloads, string(payload))
	return fp.err
}

func TestMqttHandlers(t *testing.T) {
	b, _, _ := newTestBoard(t)
	handlers := MqttHandlers("", b, nil)

	if len(handlers) != 2 {
		t.Fatalf("got %d handlers want 2", len(handlers))
	}
	want := []string{"xmas/lights/set", "xmas/lights/toggle"}
	for i, h := range handlers {
		if h.MqttSubscribeTopic() != want[i] {
			t.Errorf("got topic %s want %s", h.MqttSubscribeTopic(), want[i])
		}
	}
}

func TestMqttSet(t *testing.T) {
	b, sink, _ := newTestBoard(t)
	ms := &MqttSet{Base: "tree", Board: b, Logger: log.New(io.Discard)}

	ms.MqttHandle(&paho.Publish{Topic: "tree/set", Payload: []byte("0x0f")})
	ms.MqttHandle(&paho.Publish{Topic: "tree/set", Payload: []byte(" 240\n")})
	ms.MqttHandle(&paho.Publish{Topic: "tree/set", Payload: []byte("256")})
	ms.MqttHandle(&paho.Publish{Topic: "tree/set", Payload: []byte("lots")})

	assertSent(t, sink, 0x0f, 0xf0)
}

func TestMqttToggle(t *testing.T) {
	b, sink, clock := newTestBoard(t)
	mt := &MqttToggle{Base: "tree", Board: b, Logger: log.New(io.Discard)}

	mt.MqttHandle(&paho.Publish{Topic: "tree/toggle", Payload: []byte("6")})
	mt.MqttHandle(&paho.Publish{Topic: "tree/toggle", Payload: []byte("6")})
	// too soon, ignored
	mt.MqttHandle(&paho.Publish{Topic: "tree/toggle", Payload: []byte("6")})
	mt.MqttHandle(&paho.Publish{Topic: "tree/toggle", Payload: []byte("9")})
	mt.MqttHandle(&paho.Publish{Topic: "tree/toggle", Payload: []byte("x")})
	clock.Advance(LightOnDelay)
	mt.MqttHandle(&paho.Publish{Topic: "tree/toggle", Payload: []byte("6")})

	assertSent(t, sink, 0x40, 0x00, 0x40)
}

func TestPublishState(t *testing.T) {
	b, _, _ := newTestBoard(t)
	fp := &fakePublisher{}
	PublishState("tree", b, fp, log.New(io.Discard))

	b.Set(0x81)
	b.Disable(0)

	if len(fp.topics) != 2 {
		t.Fatalf("got %d publishes want 2", len(fp.topics))
	}
	for _, topic := range fp.topics {
		if topic != "tree/state" {
			t.Errorf("got topic %s want tree/state", topic)
		}
	}
	if fp.payloads[0] != "129" || fp.payloads[1] != "128" {
		t.Errorf("got payloads %v", fp.payloads)
	}
}

func TestPublishStateError(t *testing.T) {
	b, sink, _ := newTestBoard(t)
	fp := &fakePublisher{err: errors.New("broker down")}
	PublishState("", b, fp, log.New(io.Discard))

	if err := b.Enable(1); err != nil {
		t.Fatalf("publish error leaked into the board: %v", err)
	}
	if len(fp.topics) != 1 || fp.topics[0] != DefaultMqttBase+"/state" {
		t.Errorf("got topics %v", fp.topics)
	}
	assertSent(t, sink, 0x02)
}
