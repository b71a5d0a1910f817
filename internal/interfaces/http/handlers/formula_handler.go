package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appFormula "github.com/eli5y/eli5y/internal/application/formula"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/pkg/errors"
)

// FormulaHandler serves the formula parse, recognition, and retrieval
// endpoints.
type FormulaHandler struct {
	service       appFormula.Service
	maxImageBytes int64
	logger        logging.Logger
}

// NewFormulaHandler creates the formula handler.  maxImageBytes caps OCR
// uploads; zero disables the cap.
func NewFormulaHandler(service appFormula.Service, maxImageBytes int64, logger logging.Logger) *FormulaHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FormulaHandler{
		service:       service,
		maxImageBytes: maxImageBytes,
		logger:        logger.Named("formula_handler"),
	}
}

// parseRequest is the body of POST /api/v1/formulas/parse.
type parseRequest struct {
	Latex string `json:"latex" binding:"required"`
}

// Parse explains a LaTeX formula.
func (h *FormulaHandler) Parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	out, err := h.service.Explain(c.Request.Context(), req.Latex)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// OCR recognizes a formula image uploaded as multipart form field "file"
// and returns the extracted LaTeX.
func (h *FormulaHandler) OCR(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest,
			`multipart field "file" is required`))
		return
	}
	defer file.Close()

	var reader io.Reader = file
	if h.maxImageBytes > 0 {
		reader = io.LimitReader(file, h.maxImageBytes+1)
	}
	image, err := io.ReadAll(reader)
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "reading upload failed"))
		return
	}
	if h.maxImageBytes > 0 && int64(len(image)) > h.maxImageBytes {
		respondError(c, errors.New(errors.ErrCodeOCRInvalidImage, "image exceeds size limit"))
		return
	}

	out, err := h.service.Recognize(c.Request.Context(), image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Get returns a stored formula by id.
func (h *FormulaHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.New(errors.ErrCodeBadRequest, "invalid formula id"))
		return
	}

	f, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// List returns stored formulas, newest first.
func (h *FormulaHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	formulas, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"formulas": formulas,
		"limit":    limit,
		"offset":   offset,
	})
}
