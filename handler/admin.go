package handler

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"signature-gateway/model"
	"signature-gateway/repository"
	"signature-gateway/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler handles admin operations
type AdminHandler struct {
	clientService service.ClientServiceInterface
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(clientService service.ClientServiceInterface) *AdminHandler {
	return &AdminHandler{
		clientService: clientService,
	}
}

// CreateClientRequest represents the request to create a new client
type CreateClientRequest struct {
	Name      string `json:"name" binding:"required"`
	Version   string `json:"version" binding:"required"`
	Algorithm string `json:"algorithm"`
}

// CreateClientResponse represents the response after creating a client
type CreateClientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ClientID  string `json:"client_id"`
	Secret    string `json:"secret"` // 仅创建时返回一次
	Algorithm string `json:"algorithm"`
	Version   string `json:"version"`
	Status    int    `json:"status"`
	CreatedAt string `json:"created_at"`
}

// UpdateStatusRequest represents the request to update client status
type UpdateStatusRequest struct {
	Status *int `json:"status" binding:"required,min=0,max=1"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// CreateClient provisions a new signing credential
func (h *AdminHandler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request parameters",
			Error:   err.Error(),
		})
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), req.Name, req.Version, req.Algorithm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: "Failed to create client",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, CreateClientResponse{
		ID:        client.ID.Hex(),
		Name:      client.Name,
		ClientID:  client.ClientID,
		Secret:    client.Secret,
		Algorithm: client.Algorithm,
		Version:   client.Version,
		Status:    client.Status,
		CreatedAt: client.CreatedAt.Format("2006-01-02 15:04:05"),
	})
}

// ListClients lists all clients with pagination
func (h *AdminHandler) ListClients(c *gin.Context) {
	offset, limit := pagination(c)

	clients, err := h.clientService.ListClients(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50002,
			Message: "Failed to retrieve clients",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients": clients,
		"offset":  offset,
		"limit":   limit,
		"count":   len(clients),
	})
}

// GetClient retrieves a specific client by ID
func (h *AdminHandler) GetClient(c *gin.Context) {
	id, ok := objectID(c)
	if !ok {
		return
	}

	client, err := h.clientService.GetClientByID(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err, "Failed to retrieve client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// UpdateClientStatus enables or disables a client
func (h *AdminHandler) UpdateClientStatus(c *gin.Context) {
	id, ok := objectID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40004,
			Message: "Invalid status parameters",
			Error:   err.Error(),
		})
		return
	}

	if err := h.clientService.UpdateClientStatus(c.Request.Context(), id, *req.Status); err != nil {
		respondLookupError(c, err, "Failed to update client status")
		return
	}

	client, err := h.clientService.GetClientByID(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err, "Failed to retrieve updated client")
		return
	}

	statusText := "active"
	if *req.Status == model.ClientStatusDisabled {
		statusText = "disabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Client status updated to " + statusText,
		"client":  client,
	})
}

// DeleteClient revokes a credential
func (h *AdminHandler) DeleteClient(c *gin.Context) {
	id, ok := objectID(c)
	if !ok {
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), id); err != nil {
		respondLookupError(c, err, "Failed to delete client")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetClientVerificationLogs retrieves verification logs for a specific client
func (h *AdminHandler) GetClientVerificationLogs(c *gin.Context) {
	id, ok := objectID(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)

	logs, err := h.clientService.GetClientVerificationLogs(c.Request.Context(), id, offset, limit)
	if err != nil {
		respondLookupError(c, err, "Failed to retrieve verification logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"offset": offset,
		"limit":  limit,
		"count":  len(logs),
	})
}

// GetStats retrieves client and verification statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.clientService.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50008,
			Message: "Failed to retrieve statistics",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func objectID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40002,
			Message: "Invalid client ID format",
			Error:   err.Error(),
		})
		return primitive.NilObjectID, false
	}
	return id, true
}

func pagination(c *gin.Context) (int, int) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

func respondLookupError(c *gin.Context, err error, message string) {
	if stderrors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    40401,
			Message: "Client not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    50000,
		Message: message,
		Error:   err.Error(),
	})
}
