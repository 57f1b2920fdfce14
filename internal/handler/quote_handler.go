package handler

import (
	"fmt"
	"net/http"

	"quote_api/internal/model"
	"quote_api/internal/service"

	"github.com/gin-gonic/gin"
)

// QuoteHandler handles quote requests
type QuoteHandler struct {
	service service.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(s service.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: s}
}

func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	quotes, err := h.service.ListQuotes(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Quotes retrieved successfully", quotes)
}

func (h *QuoteHandler) GetRandomQuote(c *gin.Context) {
	quote, err := h.service.GetRandomQuote(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Random quote retrieved successfully", quote)
}

func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quote, err := h.service.GetQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Quote retrieved successfully", quote)
}

func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req model.CreateQuoteRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindError(c, err, service.MsgQuoteRequiredFields)
		return
	}

	quote, err := h.service.CreateQuote(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Quote created successfully", quote)
}

func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	var req model.UpdateQuoteRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindError(c, err, service.MsgQuoteRequiredFields)
		return
	}

	quote, err := h.service.UpdateQuote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Quote updated successfully", quote)
}

func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.DeleteQuote(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("Quote with ID %s deleted successfully", id), nil)
}

// RegisterQuoteRoutes registers quote routes. readMW guards list, get and
// create; writeMW guards update and delete. /quotes/random is always public.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup, readMW, writeMW []gin.HandlerFunc) {
	quotes := rg.Group("/quotes")
	quotes.GET("/random", h.GetRandomQuote)

	read := quotes.Group("", readMW...)
	{
		read.GET("", h.ListQuotes)
		read.GET("/:id", h.GetQuote)
		read.POST("", h.CreateQuote)
	}

	write := quotes.Group("", writeMW...)
	{
		write.PUT("/:id", h.UpdateQuote)
		write.DELETE("/:id", h.DeleteQuote)
	}
}
