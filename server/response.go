package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/ingestion"
	"github.com/poiesic/docvault/pdftext"
	"github.com/poiesic/docvault/search"
	"github.com/poiesic/docvault/storage"
)

// Error codes carried in ErrorResponse.
const (
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeUploadFailed   = "upload_failed"
	CodeInternal       = "internal_error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	ErrorCode string         `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

type documentResponse struct {
	ID        core.ID   `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Tags      []string  `json:"tags"`
}

type tagResponse struct {
	ID   core.ID `json:"id"`
	Name string  `json:"name"`
}

type uploadResponse struct {
	Document   documentResponse `json:"document"`
	ChunkCount int              `json:"chunk_count"`
	TagIDs     []core.ID        `json:"tag_ids"`
}

type searchResultResponse struct {
	ChunkID      core.ID `json:"chunk_id"`
	DocumentID   core.ID `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Text         string  `json:"text"`
	Score        float32 `json:"score"`
}

func toDocumentResponse(doc *core.Document) documentResponse {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	return documentResponse{ID: doc.Id, Name: doc.Name, CreatedAt: doc.CreatedAt, Tags: tags}
}

func toTagResponses(tags []*core.Tag) []tagResponse {
	out := make([]tagResponse, len(tags))
	for i, tag := range tags {
		out[i] = tagResponse{ID: tag.Id, Name: tag.Name}
	}
	return out
}

func respondError(c *gin.Context, status int, code string, err error, details map[string]any) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		ErrorCode: code,
		Message:   err.Error(),
		Details:   details,
	})
}

// respondStoreError maps errors from repositories, the pipeline and the
// searcher to a status and code.
func respondStoreError(c *gin.Context, err error) {
	var uploadErr *ingestion.UploadError
	switch {
	case errors.As(err, &uploadErr):
		status := http.StatusInternalServerError
		if errors.Is(err, pdftext.ErrInvalidPDF) {
			status = http.StatusBadRequest
		}
		respondError(c, status, CodeUploadFailed, err, map[string]any{
			"stage":    uploadErr.Stage.String(),
			"document": uploadErr.Document,
		})
	case errors.Is(err, storage.ErrNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, err, nil)
	case errors.Is(err, storage.ErrDuplicateKey):
		respondError(c, http.StatusConflict, CodeConflict, err, nil)
	case errors.Is(err, core.ErrInvalidDocument),
		errors.Is(err, core.ErrInvalidTag),
		errors.Is(err, storage.ErrInvalidQuery),
		errors.Is(err, search.ErrEmptyQuery):
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err, nil)
	default:
		respondError(c, http.StatusInternalServerError, CodeInternal, err, nil)
	}
}
