// File: internal/ocr/command.go
// Description: Engine implementation that shells out to an external
// recognizer. The command receives the image path as its final argument and
// must print a JSON array of regions ({text, confidence, bbox}) on stdout.

package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
)

// Injectable for testing.
var execCommandContext = exec.CommandContext

// CommandEngine runs a configured external process for each recognition.
type CommandEngine struct {
	command string
	args    []string
	log     *zap.Logger
}

// NewCommandEngine builds an Engine from a recognizer command line.
func NewCommandEngine(command string, args []string, logger *zap.Logger) (*CommandEngine, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("ocr command must not be empty")
	}
	return &CommandEngine{
		command: command,
		args:    args,
		log:     logger.Named("ocr"),
	}, nil
}

// Recognize invokes the recognizer on the image and decodes its output.
// Regions with empty text are dropped.
func (e *CommandEngine) Recognize(ctx context.Context, imagePath string) ([]schemas.Region, error) {
	args := make([]string, 0, len(e.args)+1)
	args = append(args, e.args...)
	args = append(args, imagePath)

	var stdout, stderr bytes.Buffer
	cmd := execCommandContext(ctx, e.command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("recognizer failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("recognizer failed: %w", err)
	}

	var raw []schemas.Region
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("decoding recognizer output: %w", err)
	}

	regions := raw[:0]
	for _, r := range raw {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		regions = append(regions, r)
	}
	e.log.Debug("Recognition complete",
		zap.String("image", imagePath),
		zap.Int("regions", len(regions)))
	return regions, nil
}
