package handlers

import (
	"errors"

	"foodgram/domain"
	"foodgram/internal/api/presenters"
	"foodgram/pkg/list"

	"github.com/gofiber/fiber/v2"
)

type (
	ListHandler interface {
		AddToFavorites(c *fiber.Ctx) error
		RemoveFromFavorites(c *fiber.Ctx) error
		AddToShoppingCart(c *fiber.Ctx) error
		RemoveFromShoppingCart(c *fiber.Ctx) error
		DownloadShoppingCart(c *fiber.Ctx) error
	}

	listHandler struct {
		listService list.ListService
	}
)

func NewListHandler(listService list.ListService) ListHandler {
	return &listHandler{listService: listService}
}

func membershipErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrNotInFavorites),
		errors.Is(err, domain.ErrNotInBasket):
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadRequest
	}
}

func (h *listHandler) AddToFavorites(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	recipeID := c.Params("id")

	res, err := h.listService.AddToFavorites(c.Context(), userID, recipeID)
	if err != nil {
		return presenters.ErrorResponse(c, membershipErrorStatus(err), domain.MessageFailedAddFavorite, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddFavorite)
}

func (h *listHandler) RemoveFromFavorites(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	recipeID := c.Params("id")

	if err := h.listService.RemoveFromFavorites(c.Context(), userID, recipeID); err != nil {
		return presenters.ErrorResponse(c, membershipErrorStatus(err), domain.MessageFailedRemoveFavorite, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessRemoveFavorite)
}

func (h *listHandler) AddToShoppingCart(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	recipeID := c.Params("id")

	res, err := h.listService.AddToBasket(c.Context(), userID, recipeID)
	if err != nil {
		return presenters.ErrorResponse(c, membershipErrorStatus(err), domain.MessageFailedAddToBasket, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddToBasket)
}

func (h *listHandler) RemoveFromShoppingCart(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	recipeID := c.Params("id")

	if err := h.listService.RemoveFromBasket(c.Context(), userID, recipeID); err != nil {
		return presenters.ErrorResponse(c, membershipErrorStatus(err), domain.MessageFailedRemoveFromBasket, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessRemoveFromBasket)
}

func (h *listHandler) DownloadShoppingCart(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.listService.DownloadShoppingList(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDownloadShopping, err)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+res.Filename+`"`)
	return c.SendString(res.Content)
}
