package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	zensegur "github.com/azzidev/zensegur-recipes"
)

func main() {
	location, err := time.LoadLocation("UTC")
	if err != nil {
		panic(err)
	}
	time.Local = location

	os.Exit(run(os.Args[1:]))
}

// run returns the exit code so every deferred cleanup has happened before os.Exit.
func run(args []string) int {
	serve := len(args) > 0 && args[0] == "serve"
	if serve {
		args = args[1:]
	}

	cfg, err := zensegur.LoadConfig(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		logrus.WithError(err).Error("invalid configuration")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := zensegur.NewApp(ctx, cfg, os.Stdout)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			logrus.WithError(err).Error("closing")
		}
	}()

	if serve {
		err = app.Serve(ctx)
	} else {
		err = app.RunWorkflow(ctx)
	}
	if err != nil {
		return 1
	}
	return 0
}
