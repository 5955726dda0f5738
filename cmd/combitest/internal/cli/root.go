// Package cli implements the combitest command line.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/combitest/internal/config"
	"github.com/example/combitest/internal/logging"
	"github.com/example/combitest/internal/ui"
)

const rootLongDescription = `combitest generates combinatorial test inputs for a model of named
parameters and values, runs them, and narrows failing tests down to the
failure-inducing combinations of parameter values.

WORKFLOW:
  1. Describe the parameters and constraints in a model file
  2. combitest generate model.yaml          (inspect the test inputs)
  3. combitest run model.yaml -- make test  (execute and characterize)
  4. combitest sessions                     (review past runs)

The values of each test input are passed to the test command as environment
variables, e.g. COMBITEST_BROWSER=firefox.

EXAMPLES:
  # Pairwise tests of a model, run four at a time
  combitest run model.yaml --parallel 4 -- ./scripts/e2e.sh

  # Try the characterization on an injected fault
  combitest simulate model.yaml --fail "browser=safari,os=linux"

  # Let remote machines execute the tests
  combitest serve model.yaml
  combitest work --addr ci-host:50051 -- make test`

// app is the state shared by the commands of one invocation.
type app struct {
	v          *viper.Viper
	configFile string

	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	out    *ui.Printer
}

// NewRootCommand returns the combitest command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "combitest",
		Short:         "Combinatorial testing with fault characterization",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./combitest.yaml)")
	flags.String("log-file", "", "log file (default .combitest/combitest.log)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.BoolP("verbose", "v", false, "also log to stderr at debug level")
	flags.String("data-dir", "", "directory of the session database and result cache (default .combitest)")
	flags.String("cache", "", "result cache backend: sqlite, badger or memory")

	root.AddCommand(
		newGenerateCommand(a),
		newRunCommand(a),
		newSimulateCommand(a),
		newServeCommand(a),
		newWorkCommand(a),
		newSessionsCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	logger, closer, err := logging.Setup(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.closer = closer
	a.out = ui.New(cmd.OutOrStdout())
	a.logger.Debug("configuration loaded", "config", a.v.ConfigFileUsed(), "cache", cfg.Cache.Backend)
	return nil
}

func (a *app) teardown() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
