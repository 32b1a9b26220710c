package app

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the glauth-sync CLI with the given arguments.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stderr)
}

func execute(ctx context.Context, args []string, logOut io.Writer) error {
	root := newRootCommand(logOut)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// ExitOnError prints err unless it was already logged, then exits with
// status 1.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	if !errors.Is(err, errRunFailed) {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
	}
	os.Exit(1)
}

func newRootCommand(logOut io.Writer) *cobra.Command {
	runCmd := newRunCommand(logOut)

	root := &cobra.Command{
		Use:   "glauth-sync [env-file]",
		Short: "Render a GLAuth configuration from Elasticsearch users and roles",
		Long: `glauth-sync reads users and roles from the Elasticsearch security API,
assigns each user a stable uid, and writes a GLAuth configuration file.
The file is only rewritten when its content changes.

Settings come from the environment. An optional dotenv file may be named
as the only argument; otherwise .env is loaded when present.

Without a subcommand a single run is performed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCmd.RunE,
	}

	root.AddCommand(runCmd, newServeCommand(logOut))
	return root
}

func newRunCommand(logOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "run [env-file]",
		Short: "Perform a single sync and exit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), args, logOut, func(a *App) error {
				return a.RunOnce(cmd.Context())
			})
		},
	}
}

func newServeCommand(logOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve [env-file]",
		Short: "Sync on an interval and expose health, metrics, and a trigger endpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), args, logOut, func(a *App) error {
				return a.Serve(cmd.Context())
			})
		},
	}
}

func withApp(ctx context.Context, args []string, logOut io.Writer, fn func(*App) error) error {
	var envFile string
	if len(args) > 0 {
		envFile = args[0]
	}

	a, err := New(ctx, envFile, logOut)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			a.log.Warn().Err(cerr).Msg("close backends")
		}
	}()

	return fn(a)
}
