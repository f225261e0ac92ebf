package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/api/dto"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/service"
	apperrors "github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/pkg/util/errorutil"
)

// UsersHandler exposes login and the assignable user directory.
type UsersHandler struct {
	auth       *service.AuthService
	complaints *service.ComplaintService
	validator  *validator.Validate
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, complaintService *service.ComplaintService, validate *validator.Validate) *UsersHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &UsersHandler{auth: authService, complaints: complaintService, validator: validate}
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Assignable handles GET /users/assignable?role=MAINTENANCE_TEAM&ward_id=w1.
func (h *UsersHandler) Assignable(c *fiber.Ctx) error {
	role, err := domain.ParseRole(c.Query("role"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"role": c.Query("role")})
	}
	users, err := h.complaints.ListAssignableUsers(c.UserContext(), role, optionalQuery(c, "ward_id"))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
		WardID:   user.WardID,
	}
}
