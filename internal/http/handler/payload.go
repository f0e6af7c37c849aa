package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/apperr"
	"docvault/internal/query"
	"docvault/internal/service"
)

const (
	formMetadata   = "metadata"
	formFile       = "file"
	formRemoveFile = "removeFile"
)

// documentMetadata is the JSON carried in the "metadata" form field (or as
// the whole body for JSON requests). Absent fields are left untouched on
// update.
type documentMetadata struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	Tags         *[]string       `json:"tags"`
	Price        json.RawMessage `json:"price" swaggertype:"number"`
	DocumentDate *string         `json:"documentDate" example:"2024-01-31"`
}

// documentRequest is a decoded create or update request.
type documentRequest struct {
	meta       documentMetadata
	hasMeta    bool
	file       *multipart.FileHeader
	removeFile bool
}

// readDocumentRequest accepts multipart/form-data (metadata JSON, optional
// file, optional removeFile flag) or a plain JSON metadata body.
func readDocumentRequest(c *fiber.Ctx) (*documentRequest, error) {
	req := &documentRequest{}

	if c.Is("json") {
		if len(c.Body()) == 0 {
			return req, nil
		}
		if err := decodeMetadata(c.Body(), &req.meta); err != nil {
			return nil, err
		}
		req.hasMeta = true
		return req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.Validation("expected multipart/form-data or JSON body")
	}
	if v := form.Value[formMetadata]; len(v) > 0 && strings.TrimSpace(v[0]) != "" {
		if err := decodeMetadata([]byte(v[0]), &req.meta); err != nil {
			return nil, err
		}
		req.hasMeta = true
	}
	if files := form.File[formFile]; len(files) > 0 {
		req.file = files[0]
	}
	if v := form.Value[formRemoveFile]; len(v) > 0 && v[0] != "" {
		remove, err := strconv.ParseBool(v[0])
		if err != nil {
			return nil, apperr.Validation("%s: must be true or false", formRemoveFile)
		}
		req.removeFile = remove
	}
	return req, nil
}

func decodeMetadata(raw []byte, dst *documentMetadata) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("metadata: invalid JSON")
	}
	return nil
}

// createInput converts metadata for a new document.
func (m documentMetadata) createInput() (service.CreateDocumentInput, error) {
	var in service.CreateDocumentInput
	if m.Title != nil {
		in.Title = *m.Title
	}
	if m.Description != nil {
		in.Description = *m.Description
	}
	if m.Tags != nil {
		in.Tags = *m.Tags
	}

	price, _, err := parsePrice(m.Price)
	if err != nil {
		return in, err
	}
	in.Price = price

	date, err := parseDocumentDate(m.DocumentDate)
	if err != nil {
		return in, err
	}
	in.DocumentDate = date
	return in, nil
}

// updateInput converts metadata into a partial update.
func (m documentMetadata) updateInput() (service.UpdateDocumentInput, error) {
	in := service.UpdateDocumentInput{
		Title:       m.Title,
		Description: m.Description,
		Tags:        m.Tags,
	}

	price, clearPrice, err := parsePrice(m.Price)
	if err != nil {
		return in, err
	}
	in.Price = price
	in.ClearPrice = clearPrice

	date, err := parseDocumentDate(m.DocumentDate)
	if err != nil {
		return in, err
	}
	in.DocumentDate = date
	return in, nil
}

// parsePrice accepts a JSON number or a numeric string using either decimal
// separator. null and "" mean "no price".
func parsePrice(raw json.RawMessage) (price *float64, clearPrice bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(raw, []byte("null")) {
		return nil, true, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return nil, true, nil
		}
		n, ok := query.ParseNumber(s)
		if !ok {
			return nil, false, apperr.Validation("price: must be a number")
		}
		return &n, false, nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, false, apperr.Validation("price: must be a number")
	}
	return &n, false, nil
}

// parseDocumentDate accepts YYYY-MM-DD (UTC midnight) or RFC 3339.
func parseDocumentDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	return nil, apperr.Validation("documentDate: expected YYYY-MM-DD or RFC 3339")
}

// expectedVersion reads an optional If-Match header. Quotes and a weak
// prefix are tolerated so that ETag-style values work.
func expectedVersion(c *fiber.Ctx) (int, error) {
	v := strings.TrimSpace(c.Get(fiber.HeaderIfMatch))
	if v == "" {
		return 0, nil
	}
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, apperr.Validation("If-Match: expected a document version")
	}
	return n, nil
}

// openBlob opens an uploaded part. The caller closes the returned file.
func openBlob(fh *multipart.FileHeader) (*service.BlobInput, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, apperr.Validation("file: cannot read upload")
	}
	return &service.BlobInput{
		Reader:      f,
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
	}, f, nil
}
