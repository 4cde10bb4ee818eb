package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aremuc/home-monitor-iot/internal/blob"
	"github.com/aremuc/home-monitor-iot/internal/ids"
	"github.com/aremuc/home-monitor-iot/internal/store"
)

// ErrInvalidInput rejects submissions whose declared content type is
// not an image. Surfaced to uploaders as a client error.
var ErrInvalidInput = errors.New("invalid input")

// PipelineError wraps a failure of one ingestion stage. When it is
// returned, no image record exists for the submission.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Classifier turns image bytes into labels.
type Classifier interface {
	Tags(ctx context.Context, data []byte, filename string) ([]string, error)
}

// EventPublisher announces completed ingestions. Publishing is
// best-effort and never fails the pipeline.
type EventPublisher interface {
	ImageIngested(ctx context.Context, imageID int64, storedName string, tags []string) error
}

// Submission is one uploaded image.
type Submission struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result reports a fully persisted, tagged image.
type Result struct {
	ImageID    int64
	StoredName string
	Tags       []string
}

// Pipeline drives one submission to a terminal state: persisted and
// tagged, or rolled back with nothing visible to readers.
type Pipeline struct {
	records    store.RecordStore
	blobs      blob.Store
	classifier Classifier
	events     EventPublisher
	newName    func(string) string
	log        zerolog.Logger
}

func NewPipeline(records store.RecordStore, blobs blob.Store, classifier Classifier, events EventPublisher, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		records:    records,
		blobs:      blobs,
		classifier: classifier,
		events:     events,
		newName:    ids.StoredName,
		log:        log,
	}
}

// Ingest runs the pipeline: validate, persist the blob, classify,
// persist the record and tags. A classification failure removes the
// just-written blob; a record-store failure after classification
// leaves the blob orphaned on purpose. No step is retried.
func (p *Pipeline) Ingest(ctx context.Context, sub Submission) (Result, error) {
	if !strings.HasPrefix(sub.ContentType, "image/") {
		return Result{}, fmt.Errorf("%w: content type %q is not an image", ErrInvalidInput, sub.ContentType)
	}

	storedName := p.newName(sub.Filename)

	if err := p.blobs.Put(ctx, storedName, sub.Data, sub.ContentType); err != nil {
		return Result{}, &PipelineError{Stage: "store blob", Err: err}
	}

	tags, err := p.classifier.Tags(ctx, sub.Data, storedName)
	if err != nil {
		if removeErr := p.blobs.Remove(ctx, storedName); removeErr != nil {
			p.log.Warn().
				Err(removeErr).
				Str("filename", storedName).
				Msg("rollback: blob removal failed")
		}
		return Result{}, &PipelineError{Stage: "classify", Err: err}
	}
	if tags == nil {
		tags = []string{}
	}

	imageID, err := p.records.CreateImage(ctx, storedName)
	if err != nil {
		p.log.Warn().Str("filename", storedName).Msg("blob orphaned after record creation failure")
		return Result{}, &PipelineError{Stage: "create record", Err: err}
	}

	if err := p.records.AddTags(ctx, imageID, tags); err != nil {
		p.log.Warn().Str("filename", storedName).Int64("image_id", imageID).Msg("blob orphaned after tag persistence failure")
		return Result{}, &PipelineError{Stage: "store tags", Err: err}
	}

	if p.events != nil {
		if err := p.events.ImageIngested(ctx, imageID, storedName, tags); err != nil {
			p.log.Warn().Err(err).Int64("image_id", imageID).Msg("publish ingestion event failed")
		}
	}

	p.log.Info().
		Int64("image_id", imageID).
		Str("filename", storedName).
		Int("tags", len(tags)).
		Msg("image ingested")

	return Result{
		ImageID:    imageID,
		StoredName: storedName,
		Tags:       tags,
	}, nil
}
