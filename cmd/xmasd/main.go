package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hubertat/servicemaker"

	"github.com/hubertat/xmaskit"
	"github.com/hubertat/xmaskit/drivers"
	"github.com/hubertat/xmaskit/internal/detach"
	"github.com/hubertat/xmaskit/internal/logging"
)

var (
	Version string
	Build   string

	pipePath    = flag.String("pipe", xmaskit.DefaultPipePath, "path of the command pipe")
	driverName  = flag.String("driver", "gpio", "output driver: gpio, mcpio, periph, gpiocdev or mock")
	lineList    = flag.String("lines", "", "comma separated hardware lines for pins 0-7 (driver default when empty)")
	mcpBus      = flag.Uint("mcp-bus", 1, "i2c bus of the mcp23017 (mcpio driver)")
	mcpDev      = flag.Uint("mcp-dev", 0, "address offset of the mcp23017 (mcpio driver)")
	cdevChip    = flag.String("chip", "gpiochip0", "gpio character device (gpiocdev driver)")
	foreground  = flag.Bool("foreground", false, "do not detach into the background")
	useSyslog   = flag.Bool("syslog", false, "log to syslog even in the foreground")
	flagInstall = flag.Bool("install", false, "Install service in os")

	xmasService = servicemaker.ServiceMaker{
		User:               "xmas",
		UserGroups:         []string{"gpio", "i2c"},
		ServicePath:        "/etc/systemd/system/xmasd.service",
		ServiceDescription: "xmasd: drives 8 GPIO outputs from bytes written to " + xmaskit.DefaultPipePath + ". github.com/hubertat/xmaskit",
		ExecDir:            "/srv/xmas",
		ExecName:           "xmasd",
	}
)

func main() {
	flag.Parse()

	logger := newLogger()
	logger.Debug("xmasd started", "version", Version, "build", Build)

	if *flagInstall {
		err := xmasService.InstallService()
		if err != nil {
			logger.Fatal("failed to install service", "err", err)
		}
		logger.Info("service installed!")
		return
	}

	driver, err := setupDriver()
	if err != nil {
		logger.Fatal("bad driver configuration", "err", err)
	}

	lines := driver.DefaultLines()
	if len(*lineList) > 0 {
		lines, err = drivers.ParseLines(*lineList)
		if err != nil {
			logger.Fatal("bad -lines", "err", err)
		}
	}

	bank, err := xmaskit.NewPinBank(driver, lines)
	if err != nil {
		logger.Fatal("bad pin bank", "err", err)
	}

	ctx := context.Background()
	daemon := xmaskit.NewDaemon(bank, xmaskit.NewCommandChannel(*pipePath), logger)
	err = daemon.Setup(ctx)
	if err != nil {
		closeDriver(driver, logger)
		logger.Fatal("setup failed", "driver", driver, "pipe", *pipePath, "err", err)
	}

	if !*foreground && detach.Needed(nil) {
		pid, err := detach.Start()
		if err != nil {
			logger.Fatal("failed to detach", "err", err)
		}
		logger.Info("running in background", "pid", pid)
		return
	}

	logger.Info("Listening for Christmas joy", "pipe", *pipePath, "driver", driver, "lines", lines)
	err = daemon.Run(ctx)
	closeDriver(driver, logger)
	logger.Fatal("command pipe failed", "pipe", *pipePath, "err", err)
}

func newLogger() *log.Logger {
	if *useSyslog || len(os.Getenv(detach.EnvDetached)) > 0 {
		logger, err := logging.NewSyslog("xmasd")
		if err == nil {
			return logger
		}
	}
	return logging.New("xmasd")
}

// closeDriver switches the lights off and releases the hardware before a
// fatal exit.
func closeDriver(driver drivers.OutputDriver, logger *log.Logger) {
	if !driver.IsReady() {
		return
	}
	if err := driver.Close(); err != nil {
		logger.Warn("failed to close driver", "driver", driver, "err", err)
	}
}

func setupDriver() (drivers.OutputDriver, error) {
	driver, err := drivers.GetOutputDriver(*driverName)
	if err != nil {
		return nil, err
	}

	switch d := driver.(type) {
	case *drivers.McpIO:
		d.BusNo = uint8(*mcpBus)
		d.DevNo = uint8(*mcpDev)
	case *drivers.CdevIO:
		d.Chip = *cdevChip
	case *drivers.MockOutputDriver:
		d.MonitorStateChanges(os.Stdout)
	}
	return driver, nil
}
