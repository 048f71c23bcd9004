package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthfair/clinicsync/internal/common"
	"github.com/healthfair/clinicsync/internal/server/models"
)

func (s *Server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createRecord(c *gin.Context) {
	entity := c.Param("entity")
	if !entityTypes[entity] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown entity type"})
		return
	}

	payload, err := readPayload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record := &models.Record{
		ID:           uuid.NewString(),
		EntityType:   entity,
		Payload:      payload,
		LastModified: time.Now().UnixMilli(),
		Version:      1,
	}

	if err := s.records.Create(c.Request.Context(), record); err != nil {
		s.logger.Error(c.Request.Context(), "create failed", "entity_type", entity, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}

	if entity == "patient" {
		s.notifier.PatientRegistered(c.Request.Context(), record)
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) listRecords(c *gin.Context) {
	entity := c.Param("entity")
	if !entityTypes[entity] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown entity type"})
		return
	}

	recs, err := s.records.List(c.Request.Context(), entity)
	if err != nil {
		s.logger.Error(c.Request.Context(), "list failed", "entity_type", entity, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}
	if recs == nil {
		recs = []*models.Record{}
	}

	c.JSON(http.StatusOK, recs)
}

func (s *Server) updateRecord(c *gin.Context) {
	entity := c.Param("entity")
	if !entityTypes[entity] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown entity type"})
		return
	}

	payload, err := readPayload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record := &models.Record{
		ID:           c.Param("id"),
		EntityType:   entity,
		Payload:      payload,
		LastModified: time.Now().UnixMilli(),
	}

	err = s.records.Update(c.Request.Context(), record)
	if errors.Is(err, common.ErrorNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	if err != nil {
		s.logger.Error(c.Request.Context(), "update failed", "entity_type", entity, "id", record.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}

	c.JSON(http.StatusOK, record)
}

type presignRequest struct {
	PatientID string `json:"patient_id" binding:"required"`
	FileName  string `json:"file_name" binding:"required"`
}

func (s *Server) presignDocument(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, url, err := s.documents.GetPresignedPutURL(c.Request.Context(), req.PatientID, req.FileName)
	if err != nil {
		s.logger.Error(c.Request.Context(), "presign failed", "patient_id", req.PatientID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presign error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}

// readPayload returns the request body after checking it is a JSON object.
func readPayload(c *gin.Context) (json.RawMessage, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("body is not valid JSON")
	}
	return body, nil
}
