package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/modelfile"
	"github.com/example/combitest/internal/storage"
	"github.com/example/combitest/internal/ui"
)

func newSessionsCommand(a *app) *cobra.Command {
	var state string
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Long: `List the sessions recorded by 'combitest run' and 'combitest serve', newest
first.

EXAMPLES:
  # Last ten sessions
  combitest sessions -n 10

  # Sessions that did not complete
  combitest sessions --state failed

  # Details and failure-inducing combinations of one session
  combitest sessions show 3f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			sessions, err := st.requireSessions()
			if err != nil {
				return err
			}

			opts := storage.ListOptions{Limit: limit}
			if state != "" {
				opts.States = []storage.SessionState{storage.SessionState(state)}
			}
			list, err := sessions.ListSessions(cmd.Context(), opts)
			if err != nil {
				return err
			}
			a.out.Header("Sessions")
			a.out.SessionsTable(list)
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "only sessions in this state: running, finished or failed")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "limit number of sessions shown (0 = all)")

	cmd.AddCommand(newSessionsShowCommand(a))
	return cmd
}

func newSessionsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session and its failure-inducing combinations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			sessions, err := st.requireSessions()
			if err != nil {
				return err
			}

			sess, err := sessions.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			a.out.Header(fmt.Sprintf("Session %s", sess.ID))
			a.out.Info(fmt.Sprintf("State:     %s", sess.State))
			a.out.Info(fmt.Sprintf("Model:     %s", sess.ModelPath))
			a.out.Info(fmt.Sprintf("Strength:  %d", sess.Strength))
			a.out.Info(fmt.Sprintf("Executed:  %d", sess.Executed))
			a.out.Info(fmt.Sprintf("Failed:    %d", sess.Failed))
			a.out.Info(fmt.Sprintf("Started:   %s", sess.CreatedAt.Local().Format("2006-01-02 15:04:05")))
			if !sess.FinishedAt.IsZero() {
				a.out.Info(fmt.Sprintf("Duration:  %s", ui.FormatDuration(sess.FinishedAt.Sub(sess.CreatedAt))))
			}

			rep, err := sessions.GetReport(ctx, sess.ID)
			if errors.Is(err, domain.ErrNotFound) {
				a.out.Info("")
				a.out.Warning("No report stored for this session")
				return nil
			}
			if err != nil {
				return err
			}

			a.out.Header("Failure-Inducing Combinations")
			model, ok := a.sessionModel(sess)
			if !ok {
				a.out.Warning("Model changed since the session; showing value indices")
				for _, c := range rep.FailureInducing {
					a.out.Info(c.String())
				}
				return nil
			}
			a.out.FailureInducingTable(model, rep.FailureInducing)
			return nil
		},
	}
}

// sessionModel loads the model of a stored session if it still describes
// the same parameters.
func (a *app) sessionModel(sess *storage.Session) (*modelfile.Model, bool) {
	model, err := modelfile.Load(sess.ModelPath)
	if err != nil {
		a.logger.Debug("could not load model of session", "session", sess.ID, "error", err)
		return nil, false
	}
	tm, err := model.TestModel()
	if err != nil || tm.Fingerprint() != sess.Fingerprint {
		return nil, false
	}
	return model, true
}
