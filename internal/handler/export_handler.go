package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-testslot-api/internal/dto"
	"github.com/noah-isme/sma-testslot-api/internal/service"
	"github.com/noah-isme/sma-testslot-api/pkg/response"
)

type exportService interface {
	ExportScheduledTests(ctx context.Context, format string) (*service.ExportFile, error)
}

// ExportHandler streams scheduled-test exports.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Download scheduled tests
// @Tags Roster
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /tests/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	_ = c.ShouldBindQuery(&query)
	file, err := h.exports.ExportScheduledTests(c.Request.Context(), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
