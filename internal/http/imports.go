package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/containerhub/containerhub/internal/entities"
	"github.com/containerhub/containerhub/internal/importer"
)

type ImportsController struct {
	runner   *importer.Runner
	registry *importer.Registry
}

func NewImportsController(runner *importer.Runner, registry *importer.Registry) *ImportsController {
	return &ImportsController{
		runner:   runner,
		registry: registry,
	}
}

type startRunRequest struct {
	Mode     string `json:"mode" binding:"required"`
	ItemType string `json:"item_type" binding:"required"`

	// File and pasted-JSON imports.
	Format  string `json:"format"`
	Content string `json:"content"`
	Pasted  bool   `json:"pasted"`

	// Bulk URL imports.
	URLs []string `json:"urls"`

	Visibility string `json:"visibility"`
	Policy     string `json:"policy"`
}

type runStatusResponse struct {
	ID        string                    `json:"id"`
	Mode      importer.ImportMode       `json:"mode"`
	Phase     importer.RunPhase         `json:"phase"`
	Progress  importer.ProgressSnapshot `json:"progress"`
	CreatedAt string                    `json:"created_at"`
	Error     string                    `json:"error,omitempty"`
}

func runStatus(run *importer.Run) runStatusResponse {
	resp := runStatusResponse{
		ID:        run.ID,
		Mode:      run.Mode,
		Phase:     run.Phase(),
		Progress:  run.Progress(),
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}
	if err := run.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// StartRun validates and launches an import run. Malformed input is
// rejected synchronously with 400 before any record is processed.
func (controller *ImportsController) StartRun(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := importer.RunOptions{
		Mode:       importer.ImportMode(req.Mode),
		ItemType:   entities.ItemType(req.ItemType),
		Format:     importer.SourceFormat(req.Format),
		Payload:    []byte(req.Content),
		URLs:       req.URLs,
		Visibility: entities.Visibility(req.Visibility),
		Policy:     importer.FailurePolicy(req.Policy),
	}
	switch opts.Mode {
	case importer.ModeBulkURLs:
		opts.Origin = importer.OriginBulkURLs
	default:
		opts.Origin = importer.OriginFile
		if req.Pasted {
			opts.Origin = importer.OriginJSON
		}
	}

	run, err := controller.runner.Start(opts)
	if err != nil {
		status := http.StatusBadRequest
		body := gin.H{"error": err.Error()}
		var malformed *importer.MalformedInputError
		if errors.As(err, &malformed) {
			body["format"] = malformed.Format
			if malformed.Line > 0 {
				body["line"] = malformed.Line
			}
		}
		c.IndentedJSON(status, body)
		return
	}

	controller.registry.Add(run)
	c.IndentedJSON(http.StatusAccepted, runStatus(run))
}

// GetRun reports the live progress of a run.
func (controller *ImportsController) GetRun(c *gin.Context) {
	run, err := controller.registry.Get(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, runStatus(run))
}

// CancelRun requests cooperative cancellation. Work already in flight
// completes and is reflected in the final result.
func (controller *ImportsController) CancelRun(c *gin.Context) {
	run, err := controller.registry.Get(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	run.Cancel()
	c.IndentedJSON(http.StatusAccepted, runStatus(run))
}

// GetResult returns the final summary of a finished run, or 409 while
// the run is still in progress.
func (controller *ImportsController) GetResult(c *gin.Context) {
	run, err := controller.registry.Get(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	result, err := run.Result()
	if errors.Is(err, importer.ErrRunNotFinished) {
		c.IndentedJSON(http.StatusConflict, gin.H{"error": "run has not finished", "phase": run.Phase()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"id":      run.ID,
		"phase":   run.Phase(),
		"result":  result,
		"summary": importer.Summarize(result),
	})
}
