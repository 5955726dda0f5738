package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/combitest/combinatorial/generator"
)

func newGenerateCommand(a *app) *cobra.Command {
	var positiveOnly bool
	var strength int

	cmd := &cobra.Command{
		Use:   "generate <model>",
		Short: "Print the test inputs of a model",
		Long: `Generate the initial test inputs of a model without running them.

The positive group covers every valid t-wise combination of values. Each
error constraint gets a negative group whose inputs contain exactly one of
its error tuples.

EXAMPLES:
  # Pairwise inputs and negative groups
  combitest generate model.yaml

  # Three-wise inputs only
  combitest generate model.yaml --strength 3 --positive-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, tm, err := loadModel(args[0])
			if err != nil {
				return err
			}
			if strength > 0 {
				if tm, err = tm.WithStrength(strength); err != nil {
					return err
				}
			}

			generators := []generator.Generator{generator.Positive{}}
			if !positiveOnly {
				generators = append(generators, generator.Negative{})
			}

			a.out.Header(fmt.Sprintf("Test Inputs (%s, strength %d)", args[0], tm.Strength()))
			total := 0
			for _, gen := range generators {
				groups, err := gen.Generate(tm)
				if err != nil {
					return err
				}
				for _, group := range groups {
					a.out.Step(fmt.Sprintf("Group %s: %d test inputs", group.ID, len(group.TestInputs)))
					a.out.InputsTable(model, group.TestInputs)
					a.out.Info("")
					total += len(group.TestInputs)
				}
			}
			a.out.Success(fmt.Sprintf("%d test inputs for %d parameters", total, tm.NumberOfParameters()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&positiveOnly, "positive-only", false, "skip the negative groups of error constraints")
	cmd.Flags().IntVarP(&strength, "strength", "t", 0, "override the strength of the model")
	return cmd
}
