package devserver

import (
	"errors"
	"strconv"
	"strings"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/shopping"
	"ai-shopping-list/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// validationProblem reports violations in the errors array shape clients
// read field reasons from.
func validationProblem(c *fiber.Ctx, err error) error {
	verr, ok := validation.As(err)
	if !ok {
		return problem(c, fiber.StatusBadRequest, err.Error())
	}
	errs := make([]fieldError, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		for _, m := range v.Messages {
			errs = append(errs, fieldError{Field: v.Field(), Reason: m})
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"title":  "One or more validation errors occurred.",
		"status": fiber.StatusBadRequest,
		"errors": errs,
	})
}

func (s *Server) register(c *fiber.Ctx) error {
	var req api.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return problem(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidateRegister(req); err != nil {
		return validationProblem(c, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u, err := s.store.createUser(req.Email, hash, req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return problem(c, fiber.StatusConflict, "Email is already registered")
		}
		return err
	}

	resp, err := s.issueToken(u)
	if err != nil {
		return err
	}
	s.logger.Info("user registered", zap.Int64("user_id", u.id))
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s *Server) login(c *fiber.Ctx) error {
	var req api.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return problem(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidateLogin(req); err != nil {
		return validationProblem(c, err)
	}

	u, ok := s.store.userByEmail(req.Email)
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
		return problem(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	resp, err := s.issueToken(u)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *Server) getProfile(c *fiber.Ctx) error {
	p, err := s.store.profile(getUserID(c))
	if err != nil {
		return problem(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(p)
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var req api.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return problem(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidateProfile(req); err != nil {
		return validationProblem(c, err)
	}
	if err := s.store.updateProfile(getUserID(c), req); err != nil {
		return problem(c, fiber.StatusNotFound, "User not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listLists(c *fiber.Ctx) error {
	q := api.ListQuery{
		Page:     c.QueryInt("page", 0),
		PageSize: c.QueryInt("pageSize", 0),
		Sort:     c.Query("sort"),
	}
	q, err := validation.NormalizeListQuery(q)
	if err != nil {
		return validationProblem(c, err)
	}
	return c.JSON(s.store.listPage(getUserID(c), q))
}

func listID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid list id")
	}
	return id, nil
}

func (s *Server) getList(c *fiber.Ctx) error {
	id, err := listID(c)
	if err != nil {
		return err
	}
	l, err := s.store.getList(getUserID(c), id)
	if err != nil {
		return problem(c, fiber.StatusNotFound, "Shopping list not found")
	}
	return c.JSON(l)
}

func (s *Server) createList(c *fiber.Ctx) error {
	var req api.CreateShoppingListRequest
	if err := c.BodyParser(&req); err != nil {
		return problem(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidateCreateList(req); err != nil {
		return validationProblem(c, err)
	}
	date, err := shopping.FormatPlannedDate(req.PlannedShoppingDate)
	if err != nil {
		return problem(c, fiber.StatusBadRequest, "Invalid planned shopping date")
	}

	l := s.store.createList(getUserID(c), strings.TrimSpace(req.Title), strings.TrimSpace(req.StoreName), date, api.SourceManual, req.Products)
	return c.Status(fiber.StatusCreated).JSON(l)
}

func (s *Server) updateList(c *fiber.Ctx) error {
	id, err := listID(c)
	if err != nil {
		return err
	}
	var req api.UpdateShoppingListRequest
	if err := c.BodyParser(&req); err != nil {
		return problem(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidateUpdateList(req); err != nil {
		return validationProblem(c, err)
	}
	if req.PlannedShoppingDate != nil {
		date, err := shopping.FormatPlannedDate(*req.PlannedShoppingDate)
		if err != nil {
			return problem(c, fiber.StatusBadRequest, "Invalid planned shopping date")
		}
		req.PlannedShoppingDate = &date
	}

	switch err := s.store.replaceList(getUserID(c), id, req); {
	case errors.Is(err, ErrListNotFound):
		return problem(c, fiber.StatusNotFound, "Shopping list not found")
	case errors.Is(err, ErrForeignProduct):
		return problem(c, fiber.StatusBadRequest, "Product does not belong to the list")
	case err != nil:
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) deleteList(c *fiber.Ctx) error {
	id, err := listID(c)
	if err != nil {
		return err
	}
	if err := s.store.deleteList(getUserID(c), id); err != nil {
		return problem(c, fiber.StatusNotFound, "Shopping list not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) generateList(c *fiber.Ctx) error {
	var req api.GenerateShoppingListRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problem(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := validation.ValidateGenerateList(req); err != nil {
		return validationProblem(c, err)
	}
	date, err := shopping.FormatPlannedDate(req.PlannedShoppingDate)
	if err != nil {
		return problem(c, fiber.StatusBadRequest, "Invalid planned shopping date")
	}

	userID := getUserID(c)
	profile, err := s.store.profile(userID)
	if err != nil {
		return problem(c, fiber.StatusNotFound, "User not found")
	}
	products, err := s.generator.Generate(c.UserContext(), profile, req)
	if err != nil {
		s.logger.Warn("generation failed", zap.Error(err))
		return problem(c, fiber.StatusBadGateway, "Could not generate a shopping list")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Generated list"
	}
	l := s.store.createList(userID, title, strings.TrimSpace(req.StoreName), date, api.SourceGenerated, products)
	return c.Status(fiber.StatusCreated).JSON(l)
}
