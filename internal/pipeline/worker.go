package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/bookparse/internal/parser"
)

// Worker processes a single document job.
type Worker struct {
	log *slog.Logger
}

func NewWorker(log *slog.Logger) *Worker {
	return &Worker{log: log}
}

// Process parses a job's file and records the result.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if err := ctx.Err(); err != nil {
		job.Fail("shutting down")
		return
	}

	job.SetStatus(StatusParsing)
	doc, err := parser.Parse(job.FileData(), job.Filename, log)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.Fail(err.Error())
		return
	}

	log.Info("document parsed", "title", doc.Title, "type", doc.Type, "toc_entries", len(doc.TOC))
	job.Complete(doc)
}
