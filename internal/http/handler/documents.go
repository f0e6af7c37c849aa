package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/service"
)

// documentListResponse wraps list results.
type documentListResponse struct {
	Items []model.Document `json:"items"`
	Total int              `json:"total"`
}

// ListDocuments searches documents.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    search query string   false "free-text term, number or date"
// @Param    tags   query []string false "required tags (all must match)" collectionFormat(multi)
// @Param    sort   query string   false "created_desc, created_asc, date_desc, date_asc, title_asc, price_desc, price_asc"
// @Success  200 {object} documentListResponse
// @Failure  400 {object} errorPayload
// @Router   /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.ListDocumentsInput{
			Search: c.Query("search"),
			Tags:   queryTags(c),
			Sort:   c.Query("sort"),
		}

		docs, err := svc.List(c.UserContext(), in)
		if err != nil {
			return err
		}
		if docs == nil {
			docs = []model.Document{}
		}
		return c.JSON(documentListResponse{Items: docs, Total: len(docs)})
	}
}

// queryTags collects repeated ?tags= values; each value may itself be a
// comma-separated list.
func queryTags(c *fiber.Ctx) []string {
	var tags []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("tags") {
		for _, t := range strings.Split(string(raw), ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// CreateDocument stores metadata and an optional attachment.
//
// @Summary  Create a document
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    metadata formData string true  "document metadata as JSON"
// @Param    file     formData file   false "attachment"
// @Success  201 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Router   /documents [post]
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := readDocumentRequest(c)
		if err != nil {
			return err
		}
		if !req.hasMeta {
			return apperr.Validation("metadata: required")
		}

		in, err := req.meta.createInput()
		if err != nil {
			return err
		}

		var blob *service.BlobInput
		if req.file != nil {
			b, f, err := openBlob(req.file)
			if err != nil {
				return err
			}
			defer f.Close()
			blob = b
		}

		doc, err := svc.Create(c.UserContext(), in, blob)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderETag, versionTag(doc.Version))
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one document.
//
// @Summary  Get a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} model.Document
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderETag, versionTag(doc.Version))
		return c.JSON(doc)
	}
}

// UpdateDocument applies a partial update and replaces or removes the
// attachment. A new file wins over removeFile.
//
// @Summary  Update a document
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    id         path     string true  "document id"
// @Param    If-Match   header   string false "expected version"
// @Param    metadata   formData string false "partial metadata as JSON"
// @Param    file       formData file   false "replacement attachment"
// @Param    removeFile formData bool   false "drop the current attachment"
// @Success  200 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Router   /documents/{id} [patch]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		version, err := expectedVersion(c)
		if err != nil {
			return err
		}
		req, err := readDocumentRequest(c)
		if err != nil {
			return err
		}
		if !req.hasMeta && req.file == nil && !req.removeFile {
			return apperr.Validation("metadata: required")
		}

		in, err := req.meta.updateInput()
		if err != nil {
			return err
		}
		in.ExpectedVersion = version

		var blob *service.BlobInput
		if req.file != nil {
			b, f, err := openBlob(req.file)
			if err != nil {
				return err
			}
			defer f.Close()
			blob = b
		}

		doc, err := svc.Update(c.UserContext(), c.Params("id"), in, blob, req.removeFile)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderETag, versionTag(doc.Version))
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document and, best effort, its attachment.
//
// @Summary  Delete a document
// @Tags     documents
// @Param    id path string true "document id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func versionTag(v int) string {
	return `"` + strconv.Itoa(v) + `"`
}
