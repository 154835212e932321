package services

import (
	"context"

	"alfredoptarigan/resume-screener/internal/models"
)

// IndexDocuments embeds every non-empty document and upserts it into the vector index.
// It returns how many documents were stored and the documents that were not.
func IndexDocuments(
	ctx context.Context,
	matcher SemanticMatcher,
	index QdrantService,
	model string,
	jds []models.JobDescription,
	resumes []models.Resume,
) (int, []models.Failure) {
	var (
		indexed  int
		failures []models.Failure
	)

	store := func(name string, docType models.DocumentType, text string) {
		if text == "" {
			return
		}
		vector, err := matcher.Embedding(ctx, text, model)
		if err == nil {
			err = index.UpsertDocument(ctx, name, string(docType), text, vector)
		}
		if err != nil {
			failures = append(failures, models.Failure{Document: name, Stage: models.StageIndex, Message: err.Error()})
			return
		}
		indexed++
	}

	for _, jd := range jds {
		store(jd.Name, models.DocTypeJobDescription, jd.Text)
	}
	for _, resume := range resumes {
		store(resume.Name, models.DocTypeResume, resume.Text)
	}
	return indexed, failures
}
