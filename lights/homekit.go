package lights

import (
	"context"
	"fmt"
	"hash/fnv"

	dnslog "github.com/brutella/dnssd/log"
	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	hklog "github.com/brutella/hap/log"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/xmaskit"
)

const defaultHomeKitDirectory = "./homekit"
const homeKitBridgeName = "xmas"
const homeKitBridgeAuthor = "github.com/hubertat"

// HomeKit exposes every light of the board as a HomeKit lightbulb.
type HomeKit struct {
	Name      string
	Pin       string
	Directory string
	Address   string
	Debug     bool

	bulbs  []*accessory.Lightbulb
	logger *log.Logger
}

func lightUniqueId(name string, index int) uint64 {
	hash := fnv.New64()
	hash.Write([]byte(fmt.Sprintf("Light_%s_%d", name, index)))
	return hash.Sum64()
}

func (hk *HomeKit) name() string {
	if len(hk.Name) < 1 {
		return homeKitBridgeName
	}
	return hk.Name
}

// Accessories builds one lightbulb per light, wired both ways to the board.
func (hk *HomeKit) Accessories(board *Board, firmwareVersion string) []*accessory.A {
	acc := []*accessory.A{}
	hk.bulbs = nil

	for i := 0; i < xmaskit.NumPins; i++ {
		index := i
		bulb := accessory.NewLightbulb(accessory.Info{
			Name:         fmt.Sprintf("Light %d", index),
			SerialNumber: fmt.Sprintf("light:xmas:%02d", index),
			Manufacturer: homeKitBridgeAuthor,
			Firmware:     firmwareVersion,
		})
		bulb.Id = lightUniqueId(hk.name(), index)
		bulb.Lightbulb.On.OnValueRemoteUpdate(func(on bool) {
			err := board.SetLight(index, on)
			if err != nil {
				hk.log().Warn("HomeKit update rejected", "light", index, "err", err)
				hk.sync(board.Bitfield())
			}
		})

		hk.bulbs = append(hk.bulbs, bulb)
		acc = append(acc, bulb.A)
	}

	board.OnChange(hk.sync)
	hk.sync(board.Bitfield())
	return acc
}

func (hk *HomeKit) sync(bitfield byte) {
	states := xmaskit.States(bitfield)
	for i, bulb := range hk.bulbs {
		bulb.Lightbulb.On.SetValue(states[i])
	}
}

func (hk *HomeKit) log() *log.Logger {
	if hk.logger == nil {
		return log.Default()
	}
	return hk.logger
}

// ListenAndServe runs the HomeKit bridge until ctx is done.
func (hk *HomeKit) ListenAndServe(ctx context.Context, board *Board, firmwareVersion string, logger *log.Logger) error {
	hk.logger = logger

	bridge := accessory.NewBridge(accessory.Info{
		Name:         hk.name(),
		Manufacturer: homeKitBridgeAuthor,
		Firmware:     firmwareVersion,
	})

	var store hap.Store
	if len(hk.Directory) > 1 {
		store = hap.NewFsStore(hk.Directory)
	} else {
		store = hap.NewFsStore(defaultHomeKitDirectory)
	}
	hkServer, err := hap.NewServer(store, bridge.A, hk.Accessories(board, firmwareVersion)...)
	if err != nil {
		return errors.Wrap(err, "failed to create HomeKit server")
	}
	hkServer.Pin = hk.Pin
	if len(hk.Address) > 0 {
		hkServer.Addr = hk.Address
	}

	if hk.Debug {
		hklog.Debug.Enable()
		dnslog.Debug.Enable()
	}

	return hkServer.ListenAndServe(ctx)
}
