package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reportconsole/internal/api/client"
	"github.com/reportconsole/internal/config"
	"github.com/reportconsole/internal/fallback"
	"github.com/reportconsole/internal/logger"
	"github.com/reportconsole/internal/notify"
	"github.com/reportconsole/internal/service"
	"github.com/reportconsole/internal/storage"
	"github.com/reportconsole/internal/validate"
)

// App holds what every command needs. Setup fills it from the persistent
// flags once the command line is parsed.
type App struct {
	ConfigPath string
	BaseURL    string
	Now        func() time.Time

	Config    *config.Config
	Log       *zap.Logger
	Store     storage.Store
	Assets    *fallback.Assets
	Client    *client.Client
	Notifier  notify.Notifier
	Reports   *service.ReportsService
	Users     *service.UsersService
	Databases *service.DatabasesService
}

func NewApp() *App {
	return &App{Now: time.Now}
}

// BindFlags registers --config and --base-url on root.
func (a *App) BindFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&a.ConfigPath, "config", "", "config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&a.BaseURL, "base-url", "", "report backend URL, overrides api.base_url")
}

func (a *App) Setup(ctx context.Context) error {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	if a.BaseURL != "" {
		cfg.API.BaseURL = a.BaseURL
	}
	a.Config = cfg

	if a.Log == nil {
		if a.Log, err = logger.New(cfg.Log); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
	}
	if a.Store == nil {
		if a.Store, err = storage.New(ctx, cfg.Storage, a.Log); err != nil {
			return fmt.Errorf("failed to open local store: %w", err)
		}
	}
	if a.Assets, err = fallback.NewAssets(); err != nil {
		return err
	}

	opts := []client.Option{client.WithLogger(a.Log)}
	if cfg.API.Token != "" {
		opts = append(opts, client.WithToken(cfg.API.Token))
	}
	if cfg.API.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.API.Timeout))
	}
	if a.Client, err = client.New(cfg.API.BaseURL, opts...); err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if a.Notifier == nil {
		a.Notifier = notify.Nop{}
		if slack := cfg.Notify.Slack; slack.Token != "" && slack.Channel != "" {
			a.Notifier = notify.NewSlackNotifier(slack.Token, slack.Channel)
		}
	}

	svcOpts := []service.Option{
		service.WithLogger(a.Log),
		service.WithNotifier(a.Notifier),
		service.WithClock(a.Now),
	}
	a.Reports = service.NewReportsService(a.Client, a.Store, a.Assets, cfg.API.IsAdmin, svcOpts...)
	a.Users = service.NewUsersService(a.Client, a.Store, a.Assets, svcOpts...)
	a.Databases = service.NewDatabasesService(a.Client, a.Store, a.Assets, svcOpts...)
	return nil
}

func (a *App) Close() {
	if a.Assets != nil {
		a.Assets.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil && a.Log != nil {
			a.Log.Warn("failed to close local store", zap.Error(err))
		}
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
}

// printWrite reports where a write ended up.
func printWrite[T any](w io.Writer, what string, res service.Result[T]) {
	if res.OfflineSaved() {
		fmt.Fprintf(w, "Saved locally (offline): %s, ref %s\n", what, res.LocalRef)
		return
	}
	if res.Message != "" {
		fmt.Fprintf(w, "%s: %s\n", what, res.Message)
		return
	}
	fmt.Fprintf(w, "%s: saved\n", what)
}

// printSource marks output that did not come from the backend.
func printSource[T any](w io.Writer, res service.Result[T]) {
	if !res.Live() {
		fmt.Fprintln(w, "(offline: showing local data)")
	}
}

// explain turns validation failures into the field list the user must fix.
func explain(err error) error {
	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		var parts []string
		if len(verr.Missing) > 0 {
			parts = append(parts, "missing fields: "+strings.Join(verr.Missing, ", "))
		}
		if len(verr.Invalid) > 0 {
			parts = append(parts, "invalid fields: "+strings.Join(verr.Invalid, ", "))
		}
		return fmt.Errorf("%s not saved, %s", verr.Entity, strings.Join(parts, "; "))
	}
	return err
}

func parseID(s, what string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %q", what, s)
	}
	return id, nil
}

func stdout(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
