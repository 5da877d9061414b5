package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/card-market/internal/convert"
	"github.com/and161185/card-market/internal/errs"
	"github.com/and161185/card-market/internal/model"
)

// cardID parses the :id route param. A malformed id names no card.
func cardID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Params("id"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// cardInput decodes and checks a card body. It writes the 400 itself on failure.
func cardInput(c *fiber.Ctx) (model.CardInput, bool, error) {
	var req convert.CardRequest
	if err := c.BodyParser(&req); err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return model.CardInput{}, false, reply(c, fiber.StatusBadRequest, msgCardFields)
		}
		return model.CardInput{}, false, reply(c, fiber.StatusBadRequest, msgBadRequest)
	}
	in, err := req.ToInput()
	if err != nil {
		return model.CardInput{}, false, reply(c, fiber.StatusBadRequest, msgCardFields)
	}
	return in, true, nil
}

// ListCards returns every card, newest first.
func (s *Server) ListCards(c *fiber.Ctx) error {
	cs, err := s.cards.List(c.UserContext())
	if err != nil {
		s.log.Error("list cards", zap.Error(err))
		return reply(c, fiber.StatusInternalServerError, msgCardListFailed)
	}
	return c.JSON(convert.ToCards(cs))
}

// GetCard returns one card.
func (s *Server) GetCard(c *fiber.Ctx) error {
	id, ok := cardID(c)
	if !ok {
		return reply(c, fiber.StatusNotFound, msgCardNotFound)
	}
	card, err := s.cards.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return reply(c, fiber.StatusNotFound, msgCardNotFound)
		}
		s.log.Error("get card", zap.Error(err))
		return reply(c, fiber.StatusInternalServerError, msgCardGetFailed)
	}
	return c.JSON(convert.ToCard(*card))
}

// CreateCard stores a new card.
func (s *Server) CreateCard(c *fiber.Ctx) error {
	in, ok, err := cardInput(c)
	if !ok {
		return err
	}
	card, err := s.cards.Create(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return reply(c, fiber.StatusBadRequest, msgCardFields)
		}
		s.log.Error("create card", zap.Error(err))
		return reply(c, fiber.StatusInternalServerError, msgCardCreateFailed)
	}
	return c.Status(fiber.StatusCreated).JSON(convert.ToCard(*card))
}

// UpdateCard replaces a card's fields.
func (s *Server) UpdateCard(c *fiber.Ctx) error {
	id, ok := cardID(c)
	if !ok {
		return reply(c, fiber.StatusNotFound, msgCardNotFound)
	}
	in, ok, err := cardInput(c)
	if !ok {
		return err
	}
	card, err := s.cards.Update(c.UserContext(), id, in)
	switch {
	case err == nil:
		return c.JSON(convert.ToCard(*card))
	case errors.Is(err, errs.ErrNotFound):
		return reply(c, fiber.StatusNotFound, msgCardNotFound)
	case errors.Is(err, errs.ErrValidation):
		return reply(c, fiber.StatusBadRequest, msgCardFields)
	default:
		s.log.Error("update card", zap.Error(err))
		return reply(c, fiber.StatusInternalServerError, msgCardUpdateFailed)
	}
}

// DeleteCard removes a card.
func (s *Server) DeleteCard(c *fiber.Ctx) error {
	id, ok := cardID(c)
	if !ok {
		return reply(c, fiber.StatusNotFound, msgCardNotFound)
	}
	if err := s.cards.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return reply(c, fiber.StatusNotFound, msgCardNotFound)
		}
		s.log.Error("delete card", zap.Error(err))
		return reply(c, fiber.StatusInternalServerError, msgCardDeleteFailed)
	}
	return reply(c, fiber.StatusOK, msgCardDeleted)
}
