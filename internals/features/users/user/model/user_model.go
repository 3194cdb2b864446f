package model

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// UserModel represents the users table (barangay residents plus staff/admin).
type UserModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName    string     `gorm:"size:100;not null" json:"full_name" validate:"required,min=3,max=100"`
	Email       string     `gorm:"size:255;unique;not null" json:"email" validate:"required,email"`
	Password    string     `gorm:"not null" json:"-" validate:"required,min=8"`
	Phone       string     `gorm:"size:20" json:"phone" validate:"omitempty,min=7,max=20"`
	Gender      string     `gorm:"size:10" json:"gender" validate:"omitempty,oneof=Male Female"`
	CivilStatus string     `gorm:"size:20" json:"civil_status" validate:"omitempty,oneof=Single Married Widowed Separated"`
	BirthDate   *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	GoogleID    *string    `gorm:"size:255;unique" json:"google_id,omitempty"`
	Role        string     `gorm:"type:varchar(20);not null;default:'user'" json:"-"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) SetDefaultValues() {
	if u.Role == "" {
		u.Role = "user"
	}
}

// Validate checks the struct against the rules above.
func (u *UserModel) Validate() error {
	u.SetDefaultValues()

	if err := validate.Struct(u); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		var msg string
		for _, fieldErr := range validationErrs {
			switch fieldErr.Tag() {
			case "required":
				msg += fieldErr.Field() + " is required.\n"
			case "email":
				msg += "Invalid email format.\n"
			case "min":
				msg += fieldErr.Field() + " must be at least " + fieldErr.Param() + " characters.\n"
			case "max":
				msg += fieldErr.Field() + " must be at most " + fieldErr.Param() + " characters.\n"
			case "oneof":
				msg += fieldErr.Field() + " must be one of " + fieldErr.Param() + ".\n"
			default:
				msg += fieldErr.Field() + " has an invalid format.\n"
			}
		}
		return errors.New(msg)
	}
	return err
}
