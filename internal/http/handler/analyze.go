package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"legaldoc/internal/analysis"
	"legaldoc/internal/service"
)

const errNoDocumentText = "No document text provided"

type analyzeRequest struct {
	DocumentText string `json:"documentText"`
}

// Analyze runs the pipeline on posted text and returns the merged result.
// Errors use the flat {"error": "..."} body.
// @Summary Analyze document text
// @Tags analysis
// @Accept json
// @Produce json
// @Param body body analyzeRequest true "Document text"
// @Success 200 {object} model.AnalysisResult
// @Failure 400 {object} edgeErrorPayload
// @Failure 500 {object} edgeErrorPayload
// @Failure 502 {object} edgeErrorPayload
// @Router /analyze [post]
func Analyze(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req analyzeRequest
		if err := c.BodyParser(&req); err != nil {
			return writeEdgeError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.DocumentText) == "" {
			return writeEdgeError(c, fiber.StatusBadRequest, errNoDocumentText)
		}

		report, err := svc.Analyze(c.UserContext(), req.DocumentText)
		switch {
		case err == nil:
			return c.JSON(report.Result)
		case errors.Is(err, analysis.ErrEmptyDocument):
			return writeEdgeError(c, fiber.StatusBadRequest, errNoDocumentText)
		case isProviderFailure(err):
			return writeEdgeError(c, fiber.StatusBadGateway, err.Error())
		default:
			return writeEdgeError(c, fiber.StatusInternalServerError, err.Error())
		}
	}
}
