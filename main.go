package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gym-console/config"
	"gym-console/console"
	"gym-console/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "gym-console",
		Short:         "Admin console for the gym management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(envFile, func(app *console.App) error {
				return console.NewShell(app, os.Stdin, cmd.OutOrStdout()).Run(cmd.Context())
			})
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	// Account commands run a single shell command against the stored session.
	for _, c := range []struct{ name, short string }{
		{"login", "Log in and store the session"},
		{"logout", "Forget the stored session"},
		{"whoami", "Show the logged in user"},
	} {
		name := c.name
		root.AddCommand(&cobra.Command{
			Use:   name,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(envFile, func(app *console.App) error {
					console.NewShell(app, os.Stdin, cmd.OutOrStdout()).Exec(cmd.Context(), name)
					return nil
				})
			},
		})
	}

	root.AddCommand(newListCmd(&envFile))
	return root
}

func newListCmd(envFile *string) *cobra.Command {
	var page, size int
	cmd := &cobra.Command{
		Use:       "list <users|cards|coaches|courses>",
		Short:     "Print one page of a list",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"users", "cards", "coaches", "courses"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*envFile, func(app *console.App) error {
				sh := console.NewShell(app, os.Stdin, cmd.OutOrStdout())
				if err := sh.ShowList(cmd.Context(), args[0], page, size); err != nil {
					return fmt.Errorf("list %s: %w", args[0], err)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "size", 0, "rows per page (default GYM_PAGE_SIZE)")
	return cmd
}

// withApp loads the settings, opens the logger and the app, and runs fn.
func withApp(envFile string, fn func(*console.App) error) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log, closer, err := logging.Open(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	app, err := console.Open(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	log.Debug().Str("api", cfg.APIURL).Str("state", cfg.StateDB).Msg("console ready")
	return fn(app)
}
