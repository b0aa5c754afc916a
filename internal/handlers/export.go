package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/services"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	htmlContentType = "text/html; charset=utf-8"
)

// ExportHandler streams tester and bug reports as downloads. The "pdf"
// routes serve printable HTML.
type ExportHandler struct {
	export *services.ExportService
	now    func() time.Time
}

func NewExportHandler(export *services.ExportService) *ExportHandler {
	return &ExportHandler{
		export: export,
		now:    time.Now,
	}
}

// send renders into a buffer first so a failed render still gets a JSON error.
func (h *ExportHandler) send(c *gin.Context, name, ext, contentType string, render func(w io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		apierrors.Respond(c, err)
		return
	}

	filename := fmt.Sprintf("%s_%s.%s", name, h.now().Format("2006-01-02"), ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) TestersCSV(c *gin.Context) {
	h.send(c, "testers", "csv", csvContentType, h.export.TestersCSV)
}

func (h *ExportHandler) TestersHTML(c *gin.Context) {
	h.send(c, "testers", "html", htmlContentType, h.export.TestersHTML)
}

func (h *ExportHandler) BugsCSV(c *gin.Context) {
	h.send(c, "bugs", "csv", csvContentType, h.export.BugsCSV)
}

func (h *ExportHandler) BugsHTML(c *gin.Context) {
	h.send(c, "bugs", "html", htmlContentType, h.export.BugsHTML)
}
