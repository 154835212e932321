package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
)

// DocumentRef points at one document and names it for result tables.
type DocumentRef struct {
	Name string
	URI  string
}

// DocumentLoader turns document references into extracted job descriptions and
// resumes. A document that cannot be read is reported as a failure and skipped.
type DocumentLoader interface {
	Resolve(ctx context.Context, locations []string) ([]DocumentRef, []models.Failure)
	LoadJobDescriptions(ctx context.Context, refs []DocumentRef) ([]models.JobDescription, []models.Failure)
	LoadResumes(ctx context.Context, refs []DocumentRef) ([]models.Resume, []models.Failure)
}

type documentLoader struct {
	source    DocumentSource
	extractor TextExtractor
	log       *zap.Logger
}

func NewDocumentLoader(source DocumentSource, extractor TextExtractor, log *zap.Logger) DocumentLoader {
	return &documentLoader{
		source:    source,
		extractor: extractor,
		log:       logger.OrNop(log),
	}
}

// Resolve implements DocumentLoader.
func (l *documentLoader) Resolve(ctx context.Context, locations []string) ([]DocumentRef, []models.Failure) {
	var (
		refs     []DocumentRef
		failures []models.Failure
	)
	for _, location := range locations {
		uris, err := l.source.Expand(ctx, location)
		if err != nil {
			failures = append(failures, l.fail(location, models.StageFetch, err))
			continue
		}
		if len(uris) == 0 {
			l.log.Warn("no documents found", zap.String("location", location))
		}
		for _, uri := range uris {
			refs = append(refs, DocumentRef{Name: DocumentName(uri), URI: uri})
		}
	}
	return refs, failures
}

// LoadJobDescriptions implements DocumentLoader.
func (l *documentLoader) LoadJobDescriptions(ctx context.Context, refs []DocumentRef) ([]models.JobDescription, []models.Failure) {
	var (
		jds      []models.JobDescription
		failures []models.Failure
	)
	for _, ref := range refs {
		extracted, failure := l.extract(ctx, ref)
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}
		// Role lines only exist before normalization collapses the text.
		jds = append(jds, models.JobDescription{
			Name: ref.Name,
			Text: extracted.Text,
			Role: ExtractJobRole(extracted.Raw),
		})
	}
	return jds, failures
}

// LoadResumes implements DocumentLoader.
func (l *documentLoader) LoadResumes(ctx context.Context, refs []DocumentRef) ([]models.Resume, []models.Failure) {
	var (
		resumes  []models.Resume
		failures []models.Failure
	)
	for _, ref := range refs {
		extracted, failure := l.extract(ctx, ref)
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}
		resumes = append(resumes, models.Resume{
			Name:     ref.Name,
			Text:     extracted.Text,
			Location: ExtractLocation(extracted.Text),
		})
	}
	return resumes, failures
}

func (l *documentLoader) extract(ctx context.Context, ref DocumentRef) (*ExtractedText, *models.Failure) {
	if !IsSupported(ref.Name) {
		f := l.fail(ref.Name, models.StageExtract, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ref.Name))
		return nil, &f
	}

	data, err := l.source.Fetch(ctx, ref.URI)
	if err != nil {
		f := l.fail(ref.Name, models.StageFetch, err)
		return nil, &f
	}

	extracted, err := l.extractor.ExtractBytes(ref.Name, data)
	if err != nil {
		f := l.fail(ref.Name, models.StageExtract, err)
		return nil, &f
	}

	l.log.Debug("document extracted",
		zap.String("document", ref.Name),
		zap.String("preview", logger.TruncateForLog(extracted.Text, 120)),
	)
	return extracted, nil
}

func (l *documentLoader) fail(document string, stage models.FailureStage, err error) models.Failure {
	l.log.Warn("skipping document", zap.String("document", document), zap.String("stage", string(stage)), zap.Error(err))
	return models.Failure{Document: document, Stage: stage, Message: err.Error()}
}
