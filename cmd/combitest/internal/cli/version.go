package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the version of combitest.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			a.out.Info(fmt.Sprintf("combitest %s (%s, %s/%s)", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH))
			a.out.Info("Combinatorial test generation and fault characterization")
			a.out.Info("")
			a.out.Info("For help: combitest --help")
		},
	}
}
