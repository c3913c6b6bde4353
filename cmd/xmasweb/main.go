package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hubertat/servicemaker"
	"github.com/pkg/errors"

	"github.com/hubertat/xmaskit"
	"github.com/hubertat/xmaskit/internal/logging"
	"github.com/hubertat/xmaskit/lights"
	"github.com/hubertat/xmaskit/mqtt"
)

var (
	Version string
	Build   string

	pipePath    = flag.String("pipe", xmaskit.DefaultPipePath, "path of the command pipe")
	httpAddr    = flag.String("addr", ":8080", "http listen address")
	name        = flag.String("name", "xmas", "name of the board (HomeKit bridge, mqtt client id)")
	hkPin       = flag.String("hk-pin", "", "HomeKit pin (8 digits), HomeKit is disabled when empty")
	hkDir       = flag.String("hk-dir", "./homekit", "HomeKit pairing storage directory")
	hkAddr      = flag.String("hk-addr", "", "HomeKit listen address")
	hkDebug     = flag.Bool("hk-debug", false, "HomeKit debug logging")
	mqttBroker  = flag.String("mqtt-broker", "", "mqtt broker url, e.g. mqtt://10.0.0.2:1883, mqtt is disabled when empty")
	mqttBase    = flag.String("mqtt-base", lights.DefaultMqttBase, "mqtt topic base")
	flagInstall = flag.Bool("install", false, "Install service in os")

	webService = servicemaker.ServiceMaker{
		User:               "xmas",
		UserGroups:         []string{"xmas"},
		ServicePath:        "/etc/systemd/system/xmasweb.service",
		ServiceDescription: "xmasweb: HTTP, HomeKit and MQTT control of the xmas lights. github.com/hubertat/xmaskit",
		ExecDir:            "/srv/xmas",
		ExecName:           "xmasweb",
	}
)

func main() {
	flag.Parse()
	logger := logging.New("xmasweb")
	logger.Info("xmasweb started", "version", Version)

	if *flagInstall {
		err := webService.InstallService()
		if err != nil {
			logger.Fatal("failed to install service", "err", err)
		}
		logger.Info("service installed!")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := xmaskit.NewSender(*pipePath)
	defer sender.Close()
	board := lights.NewBoard(sender)

	if len(*mqttBroker) > 0 {
		mc, err := mqtt.NewMqttClient(*mqttBroker, *name)
		if err != nil {
			logger.Fatal("failed to create mqtt client", "err", err)
		}
		mqttLogger := logger.WithPrefix("xmasweb mqtt")
		err = mc.Connect(ctx, lights.MqttHandlers(*mqttBase, board, mqttLogger))
		if err != nil {
			logger.Error("mqtt connection failed, will keep retrying", "err", err)
		}
		lights.PublishState(*mqttBase, board, mc, mqttLogger)
		defer mc.Disconnect(context.Background())
	}

	if len(*hkPin) == 8 {
		hk := &lights.HomeKit{
			Name:      *name,
			Pin:       *hkPin,
			Directory: *hkDir,
			Address:   *hkAddr,
			Debug:     *hkDebug,
		}
		go func() {
			logger.Info("Starting with HomeKit server")
			err := hk.ListenAndServe(ctx, board, Version, logger.WithPrefix("xmasweb homekit"))
			if err != nil {
				logger.Error("HomeKit server stopped", "err", err)
			}
		}()
	} else {
		logger.Info("HomeKit not configured, disabled")
	}

	server := lights.NewServer(*httpAddr, board, logger)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Listening", "addr", *httpAddr, "pipe", *pipePath)
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server failed", "err", err)
	}
}
