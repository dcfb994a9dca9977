package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/envcast/envconfig"
	"github.com/eugenenazirov/envcast/internal/application"
	"github.com/eugenenazirov/envcast/internal/config"
	"github.com/eugenenazirov/envcast/internal/logging"
	"github.com/eugenenazirov/envcast/internal/render"
	"github.com/eugenenazirov/envcast/internal/storage"
)

var signalNotify = signal.Notify

type cli struct {
	app *kingpin.Application

	declarationFile *string
	dotEnvPath      *string
	logLevel        *string

	resolve *kingpin.CmdClause
	format  *string

	serve          *kingpin.CmdClause
	port           *string
	rateLimitRPS   *float64
	rateLimitBurst *int
}

func newCLI() *cli {
	app := kingpin.New("envcast", "Resolves configuration from the environment, a .env file and declared defaults")
	c := &cli{app: app}

	c.declarationFile = app.Flag("file", "Path to the YAML or TOML declaration file").Short('f').Default("envcast.yaml").String()
	c.dotEnvPath = app.Flag("dotenv", "Path to the .env file (overrides the declaration)").String()
	c.logLevel = app.Flag("log-level", "Log level: debug, info, warn, error").String()

	c.resolve = app.Command("resolve", "Resolve the declared configuration and print it").Default()
	c.format = c.resolve.Flag("format", "Output format").Default(render.FormatJSON).Enum(render.Formats()...)

	c.serve = app.Command("serve", "Serve the resolved configuration over HTTP")
	c.port = c.serve.Flag("port", "HTTP port exposed by the service").String()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed per client (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity per client (set 0 to disable)").Default("-1").Int()

	return c
}

func main() {
	c := newCLI()
	command := kingpin.MustParse(c.app.Parse(os.Args[1:]))

	switch command {
	case c.resolve.FullCommand():
		if err := c.runResolve(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "envcast: %v\n", err)
			os.Exit(1)
		}
	case c.serve.FullCommand():
		c.runServe()
	}
}

func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		DotEnvPath: *c.dotEnvPath,
	}
	if *c.logLevel != "" {
		overrides.LogLevel = c.logLevel
	}
	if c.port != nil && *c.port != "" {
		overrides.Port = c.port
	}
	if c.rateLimitRPS != nil && *c.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = c.rateLimitRPS
	}
	if c.rateLimitBurst != nil && *c.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = c.rateLimitBurst
	}
	return overrides
}

// resolver re-reads the declaration on every call so a reload picks up
// edits to the file as well as to the environment.
func (c *cli) resolver(logger *zap.Logger) func() (map[string]any, error) {
	return func() (map[string]any, error) {
		decl, err := config.LoadDeclaration(*c.declarationFile)
		if err != nil {
			return nil, err
		}
		if *c.dotEnvPath != "" {
			decl.DotEnv = *c.dotEnvPath
		}
		return envconfig.Resolve(decl.Options(nil, logger))
	}
}

func (c *cli) runResolve(stdout io.Writer) error {
	cfg, err := config.Load(c.overrides())
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	values, err := c.resolver(logger)()
	if err != nil {
		return err
	}
	return render.Write(stdout, values, *c.format)
}

func (c *cli) runServe() {
	cfg, err := config.Load(c.overrides())
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, c.resolver(logger), logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	stopReload := reloadOnHangup(app)
	defer stopReload()

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

type reloader interface {
	Reload() (storage.Snapshot, error)
}

// reloadOnHangup re-resolves the configuration on every SIGHUP until the
// returned stop function is called. Failures are logged by the reloader and
// leave the previous snapshot in place.
func reloadOnHangup(r reloader) (stop func()) {
	hup := make(chan os.Signal, 1)
	signalNotify(hup, syscall.SIGHUP)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-hup:
				_, _ = r.Reload()
			}
		}
	}()

	return func() {
		signal.Stop(hup)
		close(done)
	}
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
