package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/colegio-api/internal/models"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details []string    `json:"detalles,omitempty"`
}

// ListPayload wraps collection results with pagination metadata.
type ListPayload struct {
	Items      interface{}        `json:"items"`
	Pagination *models.Pagination `json:"pagination"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Success: true, Data: data})
}

// List sends a success response wrapping items and pagination metadata.
func List(c *gin.Context, items interface{}, pagination *models.Pagination) {
	JSON(c, http.StatusOK, ListPayload{Items: items, Pagination: pagination})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Message sends a success response carrying only a message.
func Message(c *gin.Context, status int, message string) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Success: true, Message: message})
}

// Updated responds with HTTP 200 and the updated resource.
func Updated(c *gin.Context, message string, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Success: false, Error: appErr.Message, Details: appErr.Details})
}
