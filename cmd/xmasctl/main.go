package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"

	"github.com/hubertat/xmaskit"
	"github.com/hubertat/xmaskit/internal/logging"
)

var (
	pipePath = flag.String("pipe", xmaskit.DefaultPipePath, "path of the command pipe")
	interval = flag.Duration("interval", 0, "play the commands as a sequence, one step per interval")
	loops    = flag.Int("loops", 1, "how many times to play the sequence, 0 plays until interrupted")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] COMMAND...\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "COMMAND is a bank state: 255, 0xff or 0b11111111, bit i drives pin i.")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logging.New("xmasctl")

	commands, err := parseCommands(flag.Args())
	if err != nil {
		logger.Error("bad command", "err", err)
		flag.Usage()
		os.Exit(2)
	}

	sender := xmaskit.NewSender(*pipePath)
	defer sender.Close()

	if *interval <= 0 {
		if err := sender.Send(commands...); err != nil {
			logger.Fatal("send failed", "err", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seq := xmaskit.Sequence{Steps: commands, Interval: *interval}
	err = seq.Play(ctx, sender, *loops)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("sequence failed", "err", err)
	}
}

func parseCommands(args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, errors.New("no commands given")
	}

	commands := make([]byte, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "%q is not a byte", arg)
		}
		commands = append(commands, byte(v))
	}
	return commands, nil
}
