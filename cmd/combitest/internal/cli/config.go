package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after merging defaults, the config file,
COMBITEST_* environment variables and flags, as YAML. The output is a valid
combitest.yaml.

EXAMPLES:
  # Start a config file from the defaults
  combitest config > combitest.yaml

  # Check what an environment variable does
  COMBITEST_CACHE_BACKEND=badger combitest config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file := a.v.ConfigFileUsed(); file != "" {
				a.logger.Debug("printing configuration", "file", file)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
