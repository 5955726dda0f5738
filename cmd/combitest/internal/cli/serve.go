package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/combitest/internal/endpoint"
	"github.com/example/combitest/internal/service"
	grpctransport "github.com/example/combitest/internal/transport/grpc"
	"github.com/example/combitest/internal/web"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <model>",
		Short: "Serve a session to remote executors",
		Long: `Serve one session of the model over gRPC. Executors fetch the pending test
inputs, run them and submit the results; 'combitest work' is such an
executor. Progress is available over HTTP:

  GET /healthz              liveness
  GET /api/report           progress and failure-inducing combinations
  GET /api/sessions         stored sessions (?state=finished&limit=10)
  GET /api/sessions/{id}    one stored session and its report
  GET /metrics              metrics (?format=json)

The server stops on interrupt.

EXAMPLES:
  combitest serve model.yaml --grpc-addr :50051 --http-addr :8080`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			model, tm, err := loadModel(args[0])
			if err != nil {
				return err
			}

			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			sess, err := a.newSession(model, tm, st.results(tm.Fingerprint()))
			if err != nil {
				return err
			}
			svc, err := service.NewSessionService(service.SessionConfig{
				Model:     model,
				ModelPath: args[0],
				Manager:   sess.manager,
				Recorder:  sess.recorder,
				Sessions:  st.sessions(),
				Logger:    a.logger,
			})
			if err != nil {
				return err
			}
			endpoints := endpoint.MakeEndpoints(svc)

			grpcServer := grpctransport.NewServer(endpoints, grpctransport.WithLogger(a.logger))
			webServer := web.NewServer(a.cfg.Serve.HTTPAddr, endpoints, st.sessions(), sess.metrics, a.logger)

			a.out.Header("Serving Session")
			a.out.Info(fmt.Sprintf("Model: %s (%d parameters, strength %d)", args[0], tm.NumberOfParameters(), tm.Strength()))
			a.out.Info(fmt.Sprintf("gRPC: %s", a.cfg.Serve.GRPCAddr))
			a.out.Info(fmt.Sprintf("HTTP: %s", a.cfg.Serve.HTTPAddr))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return grpcServer.Serve(a.cfg.Serve.GRPCAddr)
			})
			g.Go(func() error {
				<-gctx.Done()
				grpcServer.GracefulStop()
				return nil
			})
			g.Go(func() error {
				return webServer.Start(gctx)
			})
			if err := g.Wait(); err != nil && ctx.Err() == nil {
				return err
			}

			r := svc.Report(context.WithoutCancel(ctx))
			a.out.Header("Failure-Inducing Combinations")
			a.out.FailureInducingTable(model, r.FailureInducing)
			if !r.Finished {
				a.out.Warning(fmt.Sprintf("Stopped with %d test inputs pending", r.Pending))
			}
			return nil
		},
	}

	cmd.Flags().String("grpc-addr", ":50051", "address of the gRPC executor service")
	cmd.Flags().String("http-addr", ":8080", "address of the HTTP status API")
	return cmd
}
