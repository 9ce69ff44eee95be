package commands

import (
	"context"
	"fmt"
	"os"
	"ticketwatch/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var rootFlags cliFlags

var rootCmd = newRootCmd(&rootFlags)

func newRootCmd(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ticketwatch --email <email> --password <password> --order-ids <id,id,...>",
		Short:        "ticketwatch checks the status of your Ticketmaster orders and notifies you about it.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.InitSlog(flags.debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ok, err := resolveConfig(*flags)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			if !ok {
				return cmd.Help()
			}

			app, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			_, err = app.check(cmd.Context())
			return err
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVarP(&flags.email, "email", "e", "", "E-mail address used in your Ticketmaster credentials.")
	fs.StringVarP(&flags.password, "password", "p", "", "Password used in your Ticketmaster credentials.")
	fs.StringVarP(&flags.orderIds, "order-ids", "o", "", "Order ids to be checked, separated by commas.")
	fs.StringVar(&flags.notify, "notify", "", "Notification sinks separated by commas: desktop, console, email. (default desktop)")
	fs.StringVar(&flags.config, "config", "", fmt.Sprintf("Path to the config file, %s is searched upwards from the working directory by default.", configName))
	fs.StringVar(&flags.dumpHttp, "dump-http", "", "Directory to write every http exchange with the site to.")
	fs.BoolVar(&flags.debug, "debug", false, "Enable debug logging.")

	cmd.AddCommand(newWatchCmd(flags))
	return cmd
}

// ExecuteContext runs the CLI, any error (a failed login included) exits with status 1.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
