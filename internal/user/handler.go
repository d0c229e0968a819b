package user

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const BasePath = "/api/v1/users"

type Handler struct {
	service   *Service
	presenter *Presenter
	logger    *logrus.Logger
}

// userRequest is the body accepted by POST and PUT. Age is a pointer so a
// missing age can be told apart from age 0.
type userRequest struct {
	UID       *uuid.UUID `json:"userUid"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Gender    Gender     `json:"gender"`
	Age       *int       `json:"age"`
	Email     string     `json:"email"`
}

func NewHandler(service *Service, logger *logrus.Logger) *Handler {
	return &Handler{service: service, presenter: NewPresenter(), logger: logger}
}

func (h *Handler) RegisterPublicRoutes(router fiber.Router) {
	router.Get(BasePath, h.fetchUsers)
	router.Get(BasePath+"/:userUid", h.fetchUser)
}

func (h *Handler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post(BasePath, h.insertUser)
	router.Put(BasePath, h.updateUser)
	router.Delete(BasePath+"/:userUid", h.deleteUser)
}

func (h *Handler) fetchUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext(), c.Query("gender"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(h.presenter.ToList(users))
}

func (h *Handler) fetchUser(c *fiber.Ctx) error {
	id, err := parseUID(c)
	if err != nil {
		return h.writeError(c, err)
	}

	user, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(h.presenter.ToResponse(user))
}

func (h *Handler) insertUser(c *fiber.Ctx) error {
	user, err := h.parseUser(c)
	if err != nil {
		return h.writeError(c, err)
	}

	id, n, err := h.service.Insert(c.UserContext(), user)
	if err != nil {
		return h.writeError(c, err)
	}
	if n != 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": fmt.Sprintf("user %s was not inserted", id)})
	}

	c.Location(BasePath + "/" + id.String())
	return c.Status(fiber.StatusCreated).JSON(h.presenter.ToResponse(WithUID(id, user)))
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	user, err := h.parseUser(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if user.UID == uuid.Nil {
		return h.writeError(c, &ValidationError{Fields: map[string]string{"userUid": "userUid is required"}})
	}

	n, err := h.service.Update(c.UserContext(), user)
	if err != nil {
		return h.writeError(c, err)
	}
	if n != 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": fmt.Sprintf("user %s was not updated", user.UID)})
	}
	return c.JSON(h.presenter.ToResponse(user))
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	id, err := parseUID(c)
	if err != nil {
		return h.writeError(c, err)
	}

	n, err := h.service.Remove(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	if n != 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": fmt.Sprintf("user %s was not deleted", id)})
	}
	return c.JSON(fiber.Map{"message": "user deleted"})
}

func (h *Handler) parseUser(c *fiber.Ctx) (User, error) {
	payload := new(userRequest)
	if err := c.BodyParser(payload); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if payload.Age == nil {
		return User{}, &ValidationError{Fields: map[string]string{"age": "age is required"}}
	}

	user := User{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Gender:    payload.Gender,
		Age:       *payload.Age,
		Email:     payload.Email,
	}
	if payload.UID != nil {
		user.UID = *payload.UID
	}
	return user, nil
}

// writeError maps service errors onto HTTP statuses.
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": verr.Fields})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	h.logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("user request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
}

func parseUID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("userUid"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid user id %q", ErrInvalidArgument, c.Params("userUid"))
	}
	return id, nil
}
