// File: internal/ocr/command_test.go

package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
)

// Uses the TestHelperProcess technique to mock exec.CommandContext.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	switch os.Getenv("HELPER_MODE") {
	case "regions":
		fmt.Print(`[
			{"text": "Submit", "confidence": 0.92, "bbox": {"x": 10, "y": 20, "width": 60, "height": 18}},
			{"text": "  ", "confidence": 0.4, "bbox": {"x": 0, "y": 0, "width": 5, "height": 5}},
			{"text": "Cancel", "confidence": 0.88, "bbox": {"x": 90, "y": 20, "width": 58, "height": 18}}
		]`)
	case "garbage":
		fmt.Print("not json")
	case "fail":
		fmt.Fprint(os.Stderr, "model not loaded")
		os.Exit(2)
	}
}

func mockRecognizer(t *testing.T, mode string) {
	t.Helper()
	orig := execCommandContext
	execCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { execCommandContext = orig })
}

func TestNewCommandEngineRequiresCommand(t *testing.T) {
	_, err := NewCommandEngine("  ", nil, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRecognizeDecodesRegions(t *testing.T) {
	mockRecognizer(t, "regions")
	engine, err := NewCommandEngine("recognizer", []string{"--json"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	regions, err := engine.Recognize(context.Background(), "/tmp/shot.png")
	require.NoError(t, err)
	require.Len(t, regions, 2, "blank-text regions are dropped")
	assert.Equal(t, "Submit", regions[0].Text)
	assert.Equal(t, 60, regions[0].BBox.Width)
	assert.Equal(t, "Cancel", regions[1].Text)
}

func TestRecognizeBadOutput(t *testing.T) {
	mockRecognizer(t, "garbage")
	engine, err := NewCommandEngine("recognizer", nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = engine.Recognize(context.Background(), "/tmp/shot.png")
	assert.ErrorContains(t, err, "decoding recognizer output")
}

func TestRecognizeCommandFailure(t *testing.T) {
	mockRecognizer(t, "fail")
	engine, err := NewCommandEngine("recognizer", nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = engine.Recognize(context.Background(), "/tmp/shot.png")
	require.Error(t, err)
	assert.ErrorContains(t, err, "model not loaded")
}

func TestJoinedText(t *testing.T) {
	regions := []schemas.Region{
		{Text: "Sign in"},
		{Text: "   "},
		{Text: "Email"},
	}
	assert.Equal(t, "Sign in Email", JoinedText(regions))
}
