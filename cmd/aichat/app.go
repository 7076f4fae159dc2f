package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/apiclient"
	"github.com/capitalize-ai/aichat/internal/chat"
	"github.com/capitalize-ai/aichat/internal/config"
	"github.com/capitalize-ai/aichat/internal/notify"
	"github.com/capitalize-ai/aichat/internal/router"
	"github.com/capitalize-ai/aichat/internal/tokenstore"
	"github.com/capitalize-ai/aichat/pkg/logger"
	"github.com/capitalize-ai/aichat/pkg/tracing"
)

// routeAnnotation names the route a command belongs to; the navigation guard
// checks it before the command runs.
const routeAnnotation = "route"

var errLoginRequired = errors.New("not logged in")

// app is the client state shared by every command of one invocation.
type app struct {
	// flags
	apiURL   string
	logLevel string

	// cfg may be set before init, as tests do.
	cfg *config.Config

	log      *logger.Logger
	creds    *tokenstore.Provider
	nav      *router.Navigator
	notifier notify.Notifier
	client   *apiclient.Client
	auth     *chat.Auth
	store    *chat.Store

	input   *bufio.Reader
	closers []func()
}

func routed(path string, cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[routeAnnotation] = path
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.apiURL != "" {
		a.cfg.APIBaseURL = a.apiURL
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}

	log, err := logger.NewCLI(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.log = log
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if a.cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "aichat", a.cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			a.closers = append(a.closers, func() { _ = tracing.Shutdown(context.Background(), tp) })
		}
	}

	store, err := a.openTokenStore()
	if err != nil {
		return err
	}
	a.creds, err = tokenstore.NewProvider(ctx, store, log)
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	a.notifier = notify.NewWriter(errOut, log)
	a.nav = router.NewNavigator(func(path string) {
		if path == router.PathLogin {
			fmt.Fprintln(errOut, `Run "aichat login" to sign in.`)
		}
	})

	a.client, err = apiclient.New(a.cfg.APIBaseURL,
		apiclient.WithCredentials(a.creds),
		apiclient.WithNavigator(a.nav),
		apiclient.WithNotifier(a.notifier),
		apiclient.WithLogger(log),
		apiclient.WithTimeouts(a.cfg.APIDefaultTimeout, a.cfg.APIThinkingTimeout),
	)
	if err != nil {
		return err
	}

	a.auth, err = chat.NewAuth(a.client, a.creds, a.notifier)
	if err != nil {
		return err
	}
	a.store, err = chat.NewStore(a.client,
		chat.WithNotifier(a.notifier),
		chat.WithLogger(log),
		chat.WithReconcilePolicy(chat.ReconcilePolicy{
			Delay:    a.cfg.ReconcileDelay,
			Interval: a.cfg.ReconcileInterval,
			Attempts: a.cfg.ReconcileAttempts,
		}),
	)
	return err
}

func (a *app) openTokenStore() (tokenstore.Store, error) {
	switch a.cfg.TokenStore {
	case "", "file":
		return tokenstore.NewFileStore(a.cfg.TokenFile)
	case "redis":
		s := tokenstore.NewRedisStore(tokenstore.RedisOptions{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
			Prefix:   a.cfg.RedisKeyPrefix,
		})
		a.closers = append(a.closers, func() { _ = s.Close() })
		return s, nil
	case "memory":
		return tokenstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", a.cfg.TokenStore)
	}
}

// guard runs the navigation guard for the command's route.
func (a *app) guard(cmd *cobra.Command) error {
	path, ok := cmd.Annotations[routeAnnotation]
	if !ok {
		return nil
	}
	d := router.Guard(router.Lookup(path), a.creds.IsLoggedIn())
	if d.Allowed {
		return nil
	}

	a.log.Debug("navigation redirected",
		zap.String("command", cmd.CommandPath()),
		zap.String("route", path),
		zap.String("redirect", d.Redirect),
	)
	a.nav.Navigate(d.Redirect)
	if d.Redirect == router.PathLogin {
		return errLoginRequired
	}
	return fmt.Errorf(`already logged in as %s; run "aichat logout" first`, a.username())
}

func (a *app) username() string {
	if u := a.creds.User(); u != nil {
		return u.Username
	}
	return "unknown user"
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
