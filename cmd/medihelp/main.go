package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/medihelp-client/api"
	"github.com/jrsteele09/medihelp-client/internal/config"
	"github.com/jrsteele09/medihelp-client/internal/logging"
	"github.com/jrsteele09/medihelp-client/internal/metrics"
	"github.com/jrsteele09/medihelp-client/request"
	"github.com/jrsteele09/medihelp-client/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	if len(args) == 0 {
		usage()
		return errors.New("no command given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.close()

	return app.dispatch(ctx, args[0], args[1:])
}

// app holds everything a command needs
type app struct {
	logger   zerolog.Logger
	registry *prometheus.Registry
	sessions *sessions.Manager
	client   *api.Client
	closeFn  func()
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	logger := logging.New(c.GetLogLevel(), c.GetEnv())
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store, closeStore, err := newStore(ctx, c)
	if err != nil {
		return nil, err
	}

	executorOpts := []request.Option{
		request.WithHTTPClient(&http.Client{Timeout: c.GetRequestTimeout()}),
		request.WithLogger(logger),
		request.WithMetrics(m),
	}
	if rps := c.GetRequestsPerSecond(); rps > 0 {
		executorOpts = append(executorOpts, request.WithLimiter(rate.NewLimiter(rate.Limit(rps), 1)))
	}
	executor := request.New(executorOpts...)

	manager, err := sessions.New(c.GetAPIBaseURL(), executor, store,
		sessions.WithLogger(logger),
		sessions.WithMetrics(m),
		sessions.WithRetry(c.GetMaxRetries(), c.GetRetryBaseDelay()),
		sessions.WithNavigator(sessions.NavigatorFunc(func(route string) {
			fmt.Printf("-> %s\n", route)
		})),
		sessions.WithNotifier(sessions.NotifierFunc(func(severity sessions.Severity, title, message string) {
			event := logger.Info()
			if severity == sessions.SeverityDestructive {
				event = logger.Warn()
			}
			event.Str("title", title).Msg(message)
		})),
	)
	if err != nil {
		closeStore()
		return nil, err
	}
	if err := manager.Init(ctx); err != nil {
		logger.Warn().Err(err).Msg("Stored session could not be restored")
	}

	client, err := api.New(c.GetAPIBaseURL(), executor, manager,
		api.WithLogger(logger),
		api.WithRetry(c.GetMaxRetries(), c.GetRetryBaseDelay()),
	)
	if err != nil {
		closeStore()
		return nil, err
	}

	return &app{logger: logger, registry: registry, sessions: manager, client: client, closeFn: closeStore}, nil
}

// close logs the request counters at debug level and releases the store
func (a *app) close() {
	if families, err := a.registry.Gather(); err == nil {
		for _, f := range families {
			for _, metric := range f.GetMetric() {
				event := a.logger.Debug().Str("metric", f.GetName()).Float64("value", metric.GetCounter().GetValue())
				for _, label := range metric.GetLabel() {
					event = event.Str(label.GetName(), label.GetValue())
				}
				event.Msg("Client metric")
			}
		}
	}
	a.closeFn()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(os.Stderr, myFigure.String())
}
