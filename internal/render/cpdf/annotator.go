// Package cpdf stamps page numbers and info lines onto PDFs with the cpdf
// command line tool.
package cpdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"scribe/internal/domain"
)

const (
	toolName   = "cpdf"
	fontName   = "Arial"
	fontColor  = "0.4 0.4 0.4"
	fontSize   = "10"
	edgeOffset = ".62in"
)

// Annotator overlays text onto PDFs.
type Annotator struct {
	bin     string
	workDir string
	runner  CommandRunner
}

// NewAnnotator creates an annotator using the cpdf binary at bin (looked up in
// PATH when empty). Info-line output files are created in workDir.
func NewAnnotator(bin, workDir string, runner CommandRunner) *Annotator {
	if bin == "" {
		bin = toolName
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Annotator{bin: bin, workDir: workDir, runner: runner}
}

// StampPageNumbers writes "<label> (Page X of Y)" at the bottom right of every
// page, rewriting pdfPath in place.
func (a *Annotator) StampPageNumbers(ctx context.Context, pdfPath, label string) error {
	text := fmt.Sprintf("%s (%%Page of %%EndPage)   ", label)
	return a.addText(ctx, text, "-bottomright", pdfPath, pdfPath)
}

// StampInfoLine writes info at the bottom left of every page into a new file
// and returns its path. pdfPath is not modified.
func (a *Annotator) StampInfoLine(ctx context.Context, pdfPath, info string) (string, error) {
	if err := os.MkdirAll(a.workDir, 0o700); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	out := filepath.Join(a.workDir, uuid.NewString()+".pdf")

	if err := a.addText(ctx, "   "+info, "-bottomleft", pdfPath, out); err != nil {
		os.Remove(out)
		return "", err
	}
	return out, nil
}

func (a *Annotator) addText(ctx context.Context, text, position, in, out string) error {
	args := []string{
		"-add-text", text,
		"-font", fontName,
		"-color", fontColor,
		"-font-size", fontSize,
		position, edgeOffset,
		in,
		"-o", out,
	}

	output, err := a.runner.Run(ctx, a.bin, args...)
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return &domain.PostProcessError{
		Tool:     toolName,
		ExitCode: exitCode,
		Output:   strings.TrimSpace(string(output)),
		Err:      err,
	}
}
