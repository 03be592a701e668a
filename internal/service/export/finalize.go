package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"scribe/internal/artifacts"
	authmodels "scribe/internal/domain/models"
)

// FinalArtifacts are the stored final outputs for one translation.
type FinalArtifacts struct {
	PDF      *Artifact
	Markdown string // path of the markdown copy of the printed text
}

// Finalize exports the translation of the user named owner (the requester
// when empty) to the final PDF path and stores the same text as markdown
// beside it. Both files are replaced together or not at all. The canonical
// owner's artifacts collapse to one file per task.
func (p *Pipeline) Finalize(ctx context.Context, requester authmodels.Identity, taskID, owner string) (*FinalArtifacts, error) {
	req := ExportRequest{
		Requester: requester,
		TaskID:    taskID,
		Kind:      artifacts.KindFinalPDF,
		Owner:     owner,
	}
	logger := p.logger.With("task_id", taskID, "kind", req.Kind, "requester", requester.UserID)
	r := newRun(logger)

	final, err := p.finalize(ctx, r, req)
	if err != nil {
		r.fail(err)
		return nil, err
	}

	logger.Info("translation finalized",
		"owner", final.owner,
		"canonical", final.owner == p.layout.CanonicalOwner(),
		"pdf", final.PDF.Path,
		"markdown", final.Markdown,
	)
	return &final.FinalArtifacts, nil
}

type finalized struct {
	FinalArtifacts
	owner string
}

func (p *Pipeline) finalize(ctx context.Context, r *run, req ExportRequest) (*finalized, error) {
	src, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	mdPath, err := p.layout.BuildStoragePath(src.task.Contest.Slug, src.task.Name, artifacts.KindFinalMarkdown, src.ownerName)
	if err != nil {
		return nil, err
	}

	// Staged beside its destination; moved into place with the PDF
	mdWork := filepath.Join(filepath.Dir(mdPath), "."+uuid.NewString()+".md")
	defer os.Remove(mdWork)
	if err := os.WriteFile(mdWork, []byte(src.text), 0o644); err != nil {
		return nil, fmt.Errorf("stage markdown: %w", err)
	}

	pdf, err := p.export(ctx, r, req, src, pending{work: mdWork, final: mdPath})
	if err != nil {
		return nil, err
	}
	return &finalized{
		FinalArtifacts: FinalArtifacts{PDF: pdf, Markdown: mdPath},
		owner:          src.ownerName,
	}, nil
}
