package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/containerhub/containerhub/internal/fetchproxy"
)

type FetchProxyController struct {
	fetcher *fetchproxy.Fetcher
}

func NewFetchProxyController(fetcher *fetchproxy.Fetcher) *FetchProxyController {
	return &FetchProxyController{
		fetcher: fetcher,
	}
}

type fetchProxyRequest struct {
	URL string `json:"url" binding:"required"`
}

// Fetch retrieves an external page for the import pipeline. Failures
// are reported in-band with success=false so the caller can surface
// the message verbatim against the offending URL.
func (controller *FetchProxyController) Fetch(c *gin.Context) {
	var req fetchProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := controller.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		c.IndentedJSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"success":      true,
		"content":      result.Content,
		"content_type": result.ContentType,
	})
}
