package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"legaldoc/internal/extract"
	"legaldoc/internal/http/middleware"
	"legaldoc/internal/service"
)

// SubmitDocument accepts a multipart upload (field "file"), analyzes it and stores the result.
// @Summary Upload and analyze a document
// @Tags analyses
// @Accept multipart/form-data
// @Produce json
// @Param X-User-ID header string true "Caller"
// @Param file formData file true "pdf, doc, docx or txt"
// @Success 201 {object} model.DocumentAnalysis
// @Failure 400,401,413,415,422,502 {object} errorPayload
// @Router /documents [post]
func SubmitDocument(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		contentType := fh.Header.Get(fiber.HeaderContentType)
		if !extract.Supported(fh.Filename, contentType) {
			return writeServiceError(c, service.ErrUnsupportedType)
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		res, err := svc.Submit(c.UserContext(), service.SubmitInput{
			UserID:      middleware.UserID(c),
			Filename:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        f,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ListAnalyses returns the caller's analyses, newest first.
// @Summary List analyses
// @Tags analyses
// @Produce json
// @Param X-User-ID header string true "Caller"
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.AnalysisListResult
// @Failure 400,401 {object} errorPayload
// @Router /analyses [get]
func ListAnalyses(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), middleware.UserID(c), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// analysisID validates the :id path parameter.
func analysisID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// GetAnalysis returns one of the caller's analyses.
// @Summary Get analysis
// @Tags analyses
// @Produce json
// @Param X-User-ID header string true "Caller"
// @Param id path string true "Analysis ID"
// @Success 200 {object} model.DocumentAnalysis
// @Failure 400,401,404 {object} errorPayload
// @Router /analyses/{id} [get]
func GetAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := analysisID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.Get(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

type downloadResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// DownloadAnalysis returns a presigned link to the original upload.
// @Summary Download original document
// @Tags analyses
// @Produce json
// @Param X-User-ID header string true "Caller"
// @Param id path string true "Analysis ID"
// @Success 200 {object} downloadResponse
// @Failure 400,401,404 {object} errorPayload
// @Router /analyses/{id}/download [get]
func DownloadAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := analysisID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := svc.DownloadURL(c.UserContext(), middleware.UserID(c), id, service.DefaultDownloadExpiry)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(downloadResponse{URL: link, ExpiresIn: int(service.DefaultDownloadExpiry.Seconds())})
	}
}

// DeleteAnalysis removes an analysis and its stored original.
// @Summary Delete analysis
// @Tags analyses
// @Param X-User-ID header string true "Caller"
// @Param id path string true "Analysis ID"
// @Success 204
// @Failure 400,401,404 {object} errorPayload
// @Router /analyses/{id} [delete]
func DeleteAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := analysisID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
