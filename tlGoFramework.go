package zensegur

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/sirupsen/logrus"
	"go.uber.org/dig"
)

// App wires the components in a dig container. Whatever gets built is released
// by Close, whichever way the run ended.
type App struct {
	ioc       *dig.Container
	client    *Client
	telemetry *Telemetry
}

func NewApp(ctx context.Context, cfg *Config, out io.Writer) *App {
	app := &App{ioc: dig.New()}

	app.provide(func() *Config { return cfg })
	app.provide(newLog)
	app.provide(func(cfg *Config) (*Telemetry, error) {
		t, err := NewTelemetry(ctx, cfg.Telemetry)
		app.telemetry = t
		return t, err
	})
	app.provide(func(cfg *Config, logger *logrus.Logger, telemetry *Telemetry) (*Client, error) {
		c, err := NewClient(ctx, cfg, logger, telemetry)
		app.client = c
		return c, err
	})
	app.provide(NewRecipeRepository)
	app.provide(func(repo *MongoRepository[Recipe], cfg *Config, logger *logrus.Logger, telemetry *Telemetry) *Runner {
		return NewRunner(repo, workflowOptionsFromConfig(cfg), out, logger, telemetry)
	})
	app.provide(func(repo *MongoRepository[Recipe], client *Client, cfg *Config, logger *logrus.Logger, telemetry *Telemetry) *Server {
		s := NewServer(cfg, repo, logger, telemetry)
		s.AddHealthCheck(MongoHealthCheck(client))
		return s
	})

	return app
}

// DIG
func (app *App) provide(constructor interface{}) {
	if err := app.ioc.Provide(constructor); err != nil {
		log.Panic(err)
	}
}

func (app *App) logger() *logrus.Logger {
	var logger *logrus.Logger
	if err := app.ioc.Invoke(func(l *logrus.Logger) { logger = l }); err != nil {
		return logrus.StandardLogger()
	}
	return logger
}

// RunWorkflow connects and runs the recipe workflow once.
func (app *App) RunWorkflow(ctx context.Context) error {
	err := app.ioc.Invoke(func(r *Runner) error { return r.Run(ctx) })
	return app.classify(err)
}

// Serve connects and serves HTTP until ctx is cancelled.
func (app *App) Serve(ctx context.Context) error {
	err := app.ioc.Invoke(func(s *Server) error { return s.Start(ctx) })
	return app.classify(err)
}

func (app *App) classify(err error) error {
	if err == nil {
		return nil
	}

	cause := dig.RootCause(err)

	var fatal *FatalError
	if errors.As(cause, &fatal) {
		return fatal
	}

	if IsKind(cause, KindConnection) {
		app.logger().Errorf("Unable to connect to the MongoDB instance due to an error: %v", cause)
		return &FatalError{Step: "connect", Err: cause}
	}

	app.logger().WithError(cause).Error("startup failed")
	return &FatalError{Step: "startup", Err: cause}
}

func (app *App) Close(ctx context.Context) error {
	var errs []error
	if app.client != nil {
		// always close the connection when done working with the client
		errs = append(errs, app.client.Close(ctx))
		app.client = nil
	}
	if app.telemetry != nil {
		errs = append(errs, app.telemetry.Shutdown(ctx))
		app.telemetry = nil
	}
	return errors.Join(errs...)
}
