package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/nimasrn/hacienda/internal/client"
	"github.com/nimasrn/hacienda/internal/config"
	"github.com/nimasrn/hacienda/internal/connectivity"
	"github.com/nimasrn/hacienda/internal/dataaccess"
	"github.com/nimasrn/hacienda/internal/localstore"
	"github.com/nimasrn/hacienda/internal/outbox"
	"github.com/nimasrn/hacienda/internal/passwords"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "dev"

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	local   *localstore.Store
	remote  *client.Client
	monitor *connectivity.Monitor
	outbox  *outbox.Outbox
	data    *dataaccess.Service
}

type flags struct {
	envPath  string
	cedula   string
	password string
	offline  bool
}

func newApp(ctx context.Context, f *flags) (*app, error) {
	if err := config.Load(f.envPath); err != nil {
		return nil, err
	}
	cfg := config.Get()

	local, err := localstore.Open(ctx, cfg.LocalDB(), passwords.New(cfg.PasswordHashCost))
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	remote := client.New(client.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout})
	monitor := connectivity.NewMonitor(remote, connectivity.Config{
		ProbeInterval:  cfg.ProbeInterval,
		ReconnectDelay: cfg.ReconnectDelay,
	})
	ob := outbox.New(repository.NewOutboxRepository(local.DB()), remote)
	a := &app{
		cfg:     cfg,
		local:   local,
		remote:  remote,
		monitor: monitor,
		outbox:  ob,
		data:    dataaccess.New(local, remote, ob, monitor),
	}
	if !f.offline {
		monitor.Probe(ctx)
	}
	logger.Debug("client ready", "api", cfg.APIBaseURL, "mode", monitor.State().String())
	return a, nil
}

func (a *app) close() {
	if err := a.local.Close(); err != nil {
		logger.Warn("closing local store", "error", err)
	}
}

func (a *app) login(ctx context.Context, f *flags) (*dataaccess.Session, error) {
	if f.cedula == "" {
		return nil, fmt.Errorf("--cedula is required")
	}
	return a.data.Login(ctx, f.cedula, f.password)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}

func rootCommand() *cobra.Command {
	f := &flags{}
	var a *app

	root := &cobra.Command{
		Use:           "hacienda",
		Short:         "Offline-capable client for the Hacienda tax api",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "template" {
				return nil
			}
			var err error
			a, err = newApp(cmd.Context(), f)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil {
				a.close()
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.envPath, "env", "", "dotenv file to load")
	pf.StringVar(&f.cedula, "cedula", os.Getenv("HACIENDA_CEDULA"), "citizen id used to sign in")
	pf.StringVar(&f.password, "password", os.Getenv("HACIENDA_PASSWORD"), "password used to sign in")
	pf.BoolVar(&f.offline, "offline", false, "skip the server and use the local store")

	appRef := func() *app { return a }
	root.AddCommand(
		loginCommand(appRef, f),
		propertiesCommand(appRef, f),
		transactionsCommand(appRef, f),
		paymentsCommand(appRef, f),
		payCommand(appRef, f),
		userAddCommand(appRef),
		importCommand(appRef),
		exportCommand(appRef),
		templateCommand(),
		seedCommand(appRef),
		syncCommand(appRef),
		statusCommand(appRef),
		statsCommand(appRef),
		watchCommand(appRef),
	)
	return root
}

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
