// File: cmd/record.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/internal/capture"
	"github.com/xkilldash9x/mimic-cli/internal/observability"
	"github.com/xkilldash9x/mimic-cli/internal/ocr"
	"github.com/xkilldash9x/mimic-cli/internal/session"
	"github.com/xkilldash9x/mimic-cli/internal/store"
)

// saveTimeout bounds the database write after recording ends; the signal
// context is already cancelled by then.
const saveTimeout = 10 * time.Second

// newRecordCmd creates and configures the `record` command.
func newRecordCmd() *cobra.Command {
	var name string

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Records a new workflow until interrupted",
		Long: `Captures mouse, keyboard and application activity into a workflow.
Recording runs until the process receives an interrupt (Ctrl+C); the captured
actions are then converted to steps and saved to the workflow database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appConfig

			st, err := store.Open(cfg.Storage.Path, logger)
			if err != nil {
				return fmt.Errorf("opening workflow store: %w", err)
			}
			defer st.Close()

			var engine ocr.Engine
			if cfg.OCR.Command != "" {
				engine, err = ocr.NewCommandEngine(cfg.OCR.Command, cfg.OCR.Args, logger)
				if err != nil {
					return err
				}
			} else {
				logger.Warn("No OCR command configured; recorded clicks will have no text anchors")
			}

			sess := session.New(cfg, ocr.NewRobotScreen(), engine, capture.SystemFrontmost, logger)
			if err := sess.Start(ctx); err != nil {
				return fmt.Errorf("starting recording session: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Recording... press Ctrl+C to stop.")
			<-ctx.Done()

			if name == "" {
				name = "Recording " + time.Now().Format("2006-01-02 15:04")
			}
			wf, err := sess.Stop(name)
			if err != nil {
				return fmt.Errorf("stopping recording session: %w", err)
			}
			if len(wf.Steps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing captured; workflow not saved.")
				return nil
			}

			saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			saved, err := st.Save(saveCtx, wf)
			if err != nil {
				return fmt.Errorf("saving workflow: %w", err)
			}

			logger.Info("Workflow recorded",
				zap.String("id", saved.ID),
				zap.String("name", saved.Name),
				zap.Int("steps", len(saved.Steps)))
			fmt.Fprintf(cmd.OutOrStdout(), "Saved workflow %s (%q, %d steps)\n",
				saved.ID, saved.Name, len(saved.Steps))
			return nil
		},
	}

	recordCmd.Flags().StringVar(&name, "name", "", "workflow name (default: timestamped)")
	return recordCmd
}
