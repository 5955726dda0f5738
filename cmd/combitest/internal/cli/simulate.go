package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/executor"
)

func newSimulateCommand(a *app) *cobra.Command {
	var faults []string

	cmd := &cobra.Command{
		Use:   "simulate <model>",
		Short: "Characterize injected faults without running anything",
		Long: `Simulate a session in which every test input containing one of the given
combinations fails. Prints which injected faults were identified.

Nothing is cached or stored.

EXAMPLES:
  # One pairwise fault
  combitest simulate model.yaml --fail "browser=safari,os=linux"

  # Two faults, one of them a single value
  combitest simulate model.yaml --fail "os=windows" --fail "browser=firefox,locale=de"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, tm, err := loadModel(args[0])
			if err != nil {
				return err
			}
			injected := make([]domain.Combination, 0, len(faults))
			for _, f := range faults {
				c, err := model.ParseAssignment(f)
				if err != nil {
					return err
				}
				if c.NumberOfSetParameters() == 0 {
					return fmt.Errorf("%w: empty fault %q", domain.ErrInvalidCombination, f)
				}
				injected = append(injected, c)
			}

			sess, err := a.newSession(model, tm, nil)
			if err != nil {
				return err
			}
			runner := executor.FuncRunner(func(_ context.Context, input domain.Combination) (domain.TestResult, error) {
				for _, c := range injected {
					if input.Contains(c) {
						return domain.Failure("contains " + model.FormatAssignment(c)), nil
					}
				}
				return domain.Success(), nil
			})

			fics, err := a.runSession(cmd.Context(), args[0], sess, runner, nil)
			if err != nil {
				return err
			}

			a.out.Header("Injected Faults")
			for _, c := range injected {
				if containsCombination(fics, c) {
					a.out.Success(fmt.Sprintf("identified %s", model.FormatAssignment(c)))
				} else {
					a.out.Warning(fmt.Sprintf("missed %s", model.FormatAssignment(c)))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&faults, "fail", nil, `failing combination as "name=value,..." (repeatable)`)
	return cmd
}

func containsCombination(list []domain.Combination, c domain.Combination) bool {
	for _, other := range list {
		if other.Equal(c) {
			return true
		}
	}
	return false
}
