package lights

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/paho"

	"github.com/hubertat/xmaskit/mqtt"
)

const DefaultMqttBase = "xmas/lights"

// MqttSet takes a whole board state on <base>/set, e.g. "0x0f" or "15".
type MqttSet struct {
	Base   string
	Board  *Board
	Logger *log.Logger
}

func (ms *MqttSet) MqttSubscribeTopic() string {
	return ms.Base + "/set"
}

func (ms *MqttSet) MqttHandle(pub *paho.Publish) {
	v, err := strconv.ParseUint(strings.TrimSpace(string(pub.Payload)), 0, 8)
	if err != nil {
		ms.Logger.Warn("bad mqtt board state", "payload", string(pub.Payload), "err", err)
		return
	}
	if err := ms.Board.Set(byte(v)); err != nil {
		ms.Logger.Error("mqtt set failed", "err", err)
	}
}

// MqttToggle toggles the light whose index arrives on <base>/toggle.
type MqttToggle struct {
	Base   string
	Board  *Board
	Logger *log.Logger
}

func (mt *MqttToggle) MqttSubscribeTopic() string {
	return mt.Base + "/toggle"
}

func (mt *MqttToggle) MqttHandle(pub *paho.Publish) {
	index, err := strconv.Atoi(strings.TrimSpace(string(pub.Payload)))
	if err != nil {
		mt.Logger.Warn("bad mqtt light index", "payload", string(pub.Payload), "err", err)
		return
	}
	if err := mt.Board.Toggle(index); err != nil {
		mt.Logger.Warn("mqtt toggle failed", "light", index, "err", err)
	}
}

// MqttHandlers returns the subscriptions for the board under base.
func MqttHandlers(base string, board *Board, logger *log.Logger) []mqtt.MqttHandler {
	if len(base) == 0 {
		base = DefaultMqttBase
	}
	if logger == nil {
		logger = log.Default()
	}
	return []mqtt.MqttHandler{
		&MqttSet{Base: base, Board: board, Logger: logger},
		&MqttToggle{Base: base, Board: board, Logger: logger},
	}
}

// PublishState publishes the bitfield, in decimal, to <base>/state on every
// board change.
func PublishState(base string, board *Board, publisher mqtt.Publisher, logger *log.Logger) {
	if len(base) == 0 {
		base = DefaultMqttBase
	}
	if logger == nil {
		logger = log.Default()
	}
	topic := base + "/state"
	board.OnChange(func(bitfield byte) {
		err := publisher.Publish(topic, []byte(strconv.Itoa(int(bitfield))))
		if err != nil {
			logger.Warn("failed to publish board state", "topic", topic, "err", err)
		}
	})
}
