package handler

import (
	"mime"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
	"docvault/internal/storage"
)

type fileURLResponse struct {
	URL string `json:"url"`
}

// GetFile streams an attachment inline.
//
// @Summary  Download an attachment
// @Tags     files
// @Produce  octet-stream
// @Param    objectId path string true "object id, with or without the blobs/ prefix"
// @Success  200 {file} binary
// @Failure  404 {object} errorPayload
// @Router   /files/{objectId} [get]
func GetFile(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		blob, err := svc.OpenBlob(c.UserContext(), objectKeyParam(c))
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, blob.ContentType)
		c.Set(fiber.HeaderContentDisposition, inlineDisposition(blob.Name))
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")

		size := -1
		if blob.Size >= 0 {
			size = int(blob.Size)
		}
		// fasthttp closes the body once it has been written.
		return c.SendStream(blob.Body, size)
	}
}

// GetFileURL returns a short-lived direct download URL.
func GetFileURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.PresignBlob(c.UserContext(), objectKeyParam(c))
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(fileURLResponse{URL: u})
	}
}

// objectKeyParam accepts either the bare uuid or the full (possibly
// percent-encoded) object key.
func objectKeyParam(c *fiber.Ctx) string {
	id, err := url.PathUnescape(c.Params("objectId"))
	if err != nil {
		return ""
	}
	if !strings.HasPrefix(id, storage.KeyPrefix) {
		id = storage.KeyPrefix + id
	}
	return id
}

func inlineDisposition(name string) string {
	if name == "" {
		return "inline"
	}
	if v := mime.FormatMediaType("inline", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "inline"
}
