// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
	"github.com/xkilldash9x/mimic-cli/internal/locator"
	"github.com/xkilldash9x/mimic-cli/internal/observability"
	"github.com/xkilldash9x/mimic-cli/internal/ocr"
	"github.com/xkilldash9x/mimic-cli/internal/replay"
	"github.com/xkilldash9x/mimic-cli/internal/store"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var continueOnError bool

	runCmd := &cobra.Command{
		Use:   "run <workflow-id>",
		Short: "Replays a saved workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appConfig

			st, err := store.Open(cfg.Storage.Path, logger)
			if err != nil {
				return fmt.Errorf("opening workflow store: %w", err)
			}
			defer st.Close()

			wf, err := st.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading workflow %s: %w", args[0], err)
			}
			if continueOnError {
				for i := range wf.Steps {
					wf.Steps[i].ContinueOnError = true
				}
			}

			surface := replay.NewRobotSurface()
			guard := replay.NewGuard(cfg.Safety, logger)

			// Text-anchored clicks fall back to their recorded coordinates
			// without a recognizer; text waits report an error instead.
			var finder replay.TextFinder
			if cfg.OCR.Command != "" {
				engine, err := ocr.NewCommandEngine(cfg.OCR.Command, cfg.OCR.Args, logger)
				if err != nil {
					return err
				}
				loc, err := locator.New(engine, ocr.NewRobotScreen(), surface, cfg.Locator, logger)
				if err != nil {
					return err
				}
				finder = loc
			}

			exec, err := replay.NewExecutor(surface, finder, guard, cfg.Replay, cfg.Locator, logger)
			if err != nil {
				return err
			}

			logger.Info("Replaying workflow",
				zap.String("id", wf.ID),
				zap.String("name", wf.Name),
				zap.Int("steps", len(wf.Steps)))

			events := make(chan schemas.ExecEvent, 16)
			printed := make(chan struct{})
			go func() {
				defer close(printed)
				out := cmd.OutOrStdout()
				for ev := range events {
					switch ev.Kind {
					case schemas.EventProgress:
						fmt.Fprintf(out, "[%d/%d] %s\n", ev.Step, ev.Total, ev.Message)
					case schemas.EventWarning:
						fmt.Fprintf(out, "warning: %s\n", ev.Message)
					case schemas.EventError:
						fmt.Fprintf(out, "error: %s\n", ev.Message)
					case schemas.EventStopped:
						fmt.Fprintf(out, "stopped: %s\n", ev.Message)
					case schemas.EventCompleted:
						fmt.Fprintf(out, "completed: %s\n", ev.Message)
					}
				}
			}()

			runErr := exec.Run(ctx, &wf, events)
			<-printed
			if runErr != nil {
				return fmt.Errorf("workflow %s failed: %w", wf.ID, runErr)
			}
			return nil
		},
	}

	runCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false,
		"keep executing after a step fails (fail-safe aborts still stop the run)")
	return runCmd
}
