package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/nimasrn/hacienda/internal/dataaccess"
	"github.com/nimasrn/hacienda/internal/importer"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/nimasrn/hacienda/pkg/prom"
	"github.com/nimasrn/hacienda/pkg/worker"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type appFunc func() *app

func loginCommand(a appFunc, f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a().login(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Printf("Bienvenido %s (%s)\n", sess.User.FullName, sess.Mode)
			return nil
		},
	}
}

func propertiesCommand(a appFunc, f *flags) *cobra.Command {
	var add model.PropertyCreateRequest
	cmd := &cobra.Command{
		Use:   "properties",
		Short: "List the signed-in citizen's properties, or add one with --number",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := a().login(ctx, f)
			if err != nil {
				return err
			}
			if add.PropertyNumber != "" {
				p, err := a().data.CreateProperty(ctx, sess, add)
				if err != nil {
					return err
				}
				return printJSON(p)
			}
			props, err := a().data.Properties(ctx, sess)
			if err != nil {
				return err
			}
			return printJSON(props)
		},
	}
	cmd.Flags().StringVar(&add.PropertyNumber, "number", "", "property number to add")
	cmd.Flags().StringVar(&add.PropertyType, "type", "RESIDENCIAL", "property type")
	cmd.Flags().StringVar(&add.Address, "address", "", "property address")
	return cmd
}

func transactionsCommand(a appFunc, f *flags) *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List the tax history, latest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := a().login(ctx, f)
			if err != nil {
				return err
			}
			var txns []*model.Transaction
			if pending {
				txns, err = a().data.PendingTransactions(ctx, sess)
			} else {
				txns, err = a().data.Transactions(ctx, sess)
			}
			if err != nil {
				return err
			}
			return printJSON(txns)
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "only transactions not yet approved")
	return cmd
}

func paymentsCommand(a appFunc, f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "payments",
		Short: "List the signed-in citizen's payments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := a().login(ctx, f)
			if err != nil {
				return err
			}
			payments, err := a().data.Payments(ctx, sess)
			if err != nil {
				return err
			}
			return printJSON(payments)
		},
	}
}

func payCommand(a appFunc, f *flags) *cobra.Command {
	var (
		amount string
		in     model.PaymentInput
		notes  string
	)
	cmd := &cobra.Command{
		Use:   "pay <referencia>",
		Short: "Register a payment for a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var err error
			if in.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}
			if notes != "" {
				in.AdminNotes = &notes
			}
			sess, err := a().login(ctx, f)
			if err != nil {
				return err
			}
			p, err := a().data.RegisterPayment(ctx, sess, args[0], in)
			if err != nil {
				return err
			}
			fmt.Printf("Pago registrado: %s %s (%s)\n", args[0], model.FormatValor(p.Amount), a().data.Mode())
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount paid")
	cmd.Flags().StringVar(&in.PaymentMethod, "method", model.DefaultPaymentMethod, "payment method")
	cmd.Flags().StringVar(&notes, "notes", "", "admin notes")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func userAddCommand(a appFunc) *cobra.Command {
	var req model.UserCreateRequest
	var email, phone string
	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Register a citizen on the server (online only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email != "" {
				req.Email = &email
			}
			if phone != "" {
				req.Phone = &phone
			}
			id, err := a().data.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("Usuario creado exitosamente: %d\n", id)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&req.Cedula, "new-cedula", "", "cedula of the new citizen")
	fl.StringVar(&req.Password, "new-password", "", "password of the new citizen")
	fl.StringVar(&req.Name, "name", "", "short name")
	fl.StringVar(&req.FullName, "full-name", "", "full name")
	fl.StringVar(&email, "email", "", "email")
	fl.StringVar(&phone, "phone", "", "phone")
	return cmd
}

func importCommand(a appFunc) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV or JSON file into the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var k importer.Kind
			if kind != "" {
				var err error
				if k, err = importer.ParseKind(kind); err != nil {
					return err
				}
			}
			res, err := importer.New(a().local).ImportFile(cmd.Context(), args[0], k)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "users, properties, transactions or payments")
	return cmd
}

func exportCommand(a appFunc) *cobra.Command {
	var (
		out string
		all bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export local payments, or the whole server dataset with --all",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var (
				raw []byte
				err error
			)
			if all {
				var data model.Dataset
				if data, err = a().data.ExportAll(ctx); err != nil {
					return err
				}
				raw, err = json.MarshalIndent(model.Export{Success: true, ExportDate: time.Now().UTC(), Data: data}, "", "  ")
			} else {
				raw, err = a().local.ExportPaymentsToJSON(ctx)
			}
			if err != nil {
				return err
			}
			if out == "" {
				_, err = fmt.Println(string(raw))
				return err
			}
			return os.WriteFile(out, raw, 0o600)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&all, "all", false, "export the server dataset (online only)")
	return cmd
}

func templateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "template <kind>",
		Short:     "Print a CSV template for an import kind",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"users", "properties", "transactions", "payments"},
		RunE: func(_ *cobra.Command, args []string) error {
			k, err := importer.ParseKind(args[0])
			if err != nil {
				return err
			}
			t, err := importer.Template(k)
			if err != nil {
				return err
			}
			fmt.Print(t)
			return nil
		},
	}
}

func seedCommand(a appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo citizens into an empty local store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seeded, err := a().local.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Println("local store already has users, nothing seeded")
			}
			return nil
		},
	}
}

func syncCommand(a appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay pending local writes and pull the server dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a().data.Sync(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func statusCommand(a appFunc) *cobra.Command {
	var conflicts bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the connection mode and the outbox backlog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if conflicts {
				entries, err := a().data.Conflicts(ctx)
				if err != nil {
					return err
				}
				return printJSON(entries)
			}
			st, err := a().data.Status(ctx)
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	}
	cmd.Flags().BoolVar(&conflicts, "conflicts", false, "list entries the server rejected")
	return cmd
}

func statsCommand(a appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the server aggregate counts (online only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a().data.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}

func watchCommand(a appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep probing the server and sync on a schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, a())
		},
	}
}

// watch runs the monitor plus scheduled syncs. Syncs go through a one-slot
// queue so a tick that fires during a running sync is dropped.
func watch(ctx context.Context, a *app) error {
	if a.cfg.AppDebugMetricsAddr != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, a.cfg.AppEnv, a.cfg.PromNamespace); err != nil {
			logger.Warn("metrics disabled", "error", err)
		} else {
			go prom.ListenAndServer(a.cfg.AppDebugMetricsAddr, a.cfg.AppDebugMetricsURI)
		}
	}
	if _, _, err := a.outbox.Backlog(ctx); err != nil {
		logger.Warn("failed to count outbox backlog", "error", err)
	}

	pool := worker.NewManager(1, 1, func(ctx context.Context, _ int, _ struct{}) {
		res, err := a.data.Sync(ctx)
		switch {
		case errors.Is(err, dataaccess.ErrOffline):
			logger.Info("sync skipped, offline")
		case err != nil:
			logger.Warn("sync failed", "error", err)
		default:
			logger.Info("sync done", "replayed", res.Flush.Replayed, "imported", res.Import.Imported())
		}
	})

	c := cron.New()
	if _, err := c.AddFunc(a.cfg.SyncSchedule, func() {
		if !pool.TryEnqueue(struct{}{}) {
			logger.Debug("sync already queued")
		}
	}); err != nil {
		return fmt.Errorf("invalid SYNC_SCHEDULE %q: %w", a.cfg.SyncSchedule, err)
	}

	a.monitor.Start(ctx)
	defer a.monitor.Stop()
	c.Start()
	defer c.Stop()

	pool.TryEnqueue(struct{}{})
	go func() {
		<-ctx.Done()
		pool.Exit()
	}()
	logger.Info("watching", "api", a.cfg.APIBaseURL, "schedule", a.cfg.SyncSchedule)
	_ = pool.Start(ctx)
	return nil
}
