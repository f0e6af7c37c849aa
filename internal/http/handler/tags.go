package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/model"
	"docvault/internal/service"
)

type createTagRequest struct {
	Name string `json:"name"`
}

// ListTags returns all tags, most used first.
//
// @Summary  List tags
// @Tags     tags
// @Produce  json
// @Success  200 {array} model.Tag
// @Router   /tags [get]
func ListTags(svc service.TagService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		if tags == nil {
			tags = []model.Tag{}
		}
		noCache(c)
		return c.JSON(tags)
	}
}

// CreateTag registers a tag explicitly.
//
// @Summary  Create a tag
// @Tags     tags
// @Accept   json
// @Produce  json
// @Param    body body createTagRequest true "tag"
// @Success  201 {object} model.Tag
// @Failure  400 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Router   /tags [post]
func CreateTag(svc service.TagService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createTagRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.ErrBadRequest
		}

		tag, err := svc.Create(c.UserContext(), req.Name)
		if err != nil {
			return err
		}
		noCache(c)
		return c.Status(fiber.StatusCreated).JSON(tag)
	}
}

// Tag lists change with every document write; browsers must not cache them.
func noCache(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
}
