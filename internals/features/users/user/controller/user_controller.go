package controller

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	userDTO "barangayku_backend/internals/features/users/user/dto"
	userModel "barangayku_backend/internals/features/users/user/model"
	helpers "barangayku_backend/internals/helpers"
)

type UserController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db, Validate: validator.New()}
}

/* ==========================
   Resident endpoints
========================== */

// GET /api/u/users/me
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var user userModel.UserModel
	if err := uc.DB.First(&user, "id = ?", userID).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusNotFound, "User not found")
	}
	return helpers.JsonOK(c, "Profile retrieved", userDTO.ToUserResponse(&user))
}

// PUT /api/u/users/me
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req userDTO.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := uc.Validate.Struct(req); err != nil {
		return helpers.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	updates := map[string]any{}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.CivilStatus != nil {
		updates["civil_status"] = *req.CivilStatus
	}
	if req.BirthDate != nil {
		t, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return helpers.JsonError(c, fiber.StatusBadRequest, "birth_date must be YYYY-MM-DD")
		}
		updates["birth_date"] = t
	}
	if len(updates) == 0 {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Nothing to update")
	}

	if err := uc.DB.Model(&userModel.UserModel{}).
		Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to update profile")
	}

	var user userModel.UserModel
	if err := uc.DB.First(&user, "id = ?", userID).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to reload profile")
	}
	return helpers.JsonUpdated(c, "Profile updated", userDTO.ToUserResponse(&user))
}

/* ==========================
   Admin endpoints
========================== */

// GET /api/a/users?search=&page=&per_page=
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	paging := helpers.ResolvePaging(c, 20, 100)

	q := uc.DB.Model(&userModel.UserModel{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to count users")
	}

	var users []userModel.UserModel
	if err := q.Order("created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&users).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to list users")
	}

	p := helpers.BuildPaginationFromPage(total, paging.Page, paging.PerPage)
	return helpers.JsonList(c, "Users retrieved", userDTO.ToUserResponses(users), &p)
}

// PATCH /api/a/users/:id/active  body: {"is_active": bool}
func (uc *UserController) ToggleActive(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Invalid user id")
	}

	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.BodyParser(&body); err != nil || body.IsActive == nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "is_active is required")
	}

	res := uc.DB.Model(&userModel.UserModel{}).
		Where("id = ?", id).
		Update("is_active", *body.IsActive)
	if res.Error != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to update user")
	}
	if res.RowsAffected == 0 {
		return helpers.JsonError(c, fiber.StatusNotFound, "User not found")
	}
	return helpers.JsonUpdated(c, "User status updated", fiber.Map{"id": id, "is_active": *body.IsActive})
}

// DELETE /api/a/users/:id
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Invalid user id")
	}

	res := uc.DB.Delete(&userModel.UserModel{}, "id = ?", id)
	if res.Error != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to delete user")
	}
	if res.RowsAffected == 0 {
		return helpers.JsonError(c, fiber.StatusNotFound, "User not found")
	}
	return helpers.JsonDeleted(c, "User deleted", fiber.Map{"id": id})
}
