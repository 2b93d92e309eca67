package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/search"
)

var errInvalidID = errors.New("invalid document id")

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listDocuments(c *gin.Context) {
	docs, err := s.documents.ListDocuments(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}

	out := make([]documentResponse, len(docs))
	for i, doc := range docs {
		out[i] = toDocumentResponse(doc)
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (s *Server) getDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	doc, err := s.documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) deleteDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	deleted, err := s.documents.DeleteDocument(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	s.logger.Info("document deleted", "document", id, "existed", deleted)
	c.Status(http.StatusNoContent)
}

func (s *Server) uploadDocument(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("missing file: %w", err), nil)
		return
	}
	if header.Size > s.config.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, CodeInvalidRequest,
			fmt.Errorf("file is %d bytes, limit is %d", header.Size, s.config.MaxUploadBytes), nil)
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = header.Filename
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("read file: %w", err), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("read file: %w", err), nil)
		return
	}

	result, err := s.uploader.Upload(c.Request.Context(), name, data)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, uploadResponse{
		Document:   toDocumentResponse(result.Document),
		ChunkCount: result.ChunkCount,
		TagIDs:     result.TagIDs,
	})
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.tags.ListTags(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": toTagResponses(tags)})
}

type addTagsRequest struct {
	Names []string `json:"names" binding:"required,min=1"`
}

func (s *Server) addTags(c *gin.Context) {
	var req addTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err, nil)
		return
	}

	tags, err := s.tags.AddTags(c.Request.Context(), req.Names...)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tags": toTagResponses(tags)})
}

func (s *Server) search(c *gin.Context) {
	query := c.Query("q")
	limit := search.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("invalid limit %q", raw), nil)
			return
		}
		limit = n
	}

	results, err := s.searcher.Search(c.Request.Context(), query, limit)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	out := make([]searchResultResponse, len(results))
	for i, r := range results {
		out[i] = searchResultResponse{
			ChunkID:      r.Chunk.Id,
			DocumentID:   r.Chunk.DocumentId,
			DocumentName: r.DocumentName,
			Text:         r.Chunk.Text,
			Score:        r.Score,
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

func documentID(c *gin.Context) (core.ID, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("%w: %q", errInvalidID, c.Param("id")), nil)
		return 0, false
	}
	return core.ID(id), true
}
