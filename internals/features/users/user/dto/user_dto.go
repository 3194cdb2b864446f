package dto

import (
	"time"

	"github.com/google/uuid"

	userModel "barangayku_backend/internals/features/users/user/model"
)

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	CivilStatus string     `json:"civil_status,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

func ToUserResponse(u *userModel.UserModel) UserResponse {
	return UserResponse{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		Phone:       u.Phone,
		Gender:      u.Gender,
		CivilStatus: u.CivilStatus,
		BirthDate:   u.BirthDate,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
	}
}

func ToUserResponses(list []userModel.UserModel) []UserResponse {
	out := make([]UserResponse, 0, len(list))
	for i := range list {
		out = append(out, ToUserResponse(&list[i]))
	}
	return out
}

type UpdateProfileRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=3,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,min=7,max=20"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=Male Female"`
	CivilStatus *string `json:"civil_status" validate:"omitempty,oneof=Single Married Widowed Separated"`
	BirthDate   *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}
