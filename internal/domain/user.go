package domain

import "time"

type User struct {
	UserID          string     `json:"id" dynamodbav:"user_id"`
	Username        string     `json:"username" dynamodbav:"username"`
	Email           string     `json:"email" dynamodbav:"email"`
	Phone           *string    `json:"phone" dynamodbav:"phone"`
	PasswordHash    string     `json:"-" dynamodbav:"password_hash"`
	Role            string     `json:"role" dynamodbav:"role"`
	FirstName       string     `json:"first_name" dynamodbav:"first_name"`
	LastName        string     `json:"last_name" dynamodbav:"last_name"`
	Headline        string     `json:"headline,omitempty" dynamodbav:"headline"`
	CountryOfOrigin string     `json:"country_of_origin,omitempty" dynamodbav:"country_of_origin"`
	EmailConfirmed  bool       `json:"email_confirmed" dynamodbav:"email_confirmed"`
	PhoneConfirmed  bool       `json:"phone_confirmed" dynamodbav:"phone_confirmed"`
	Enable          int        `json:"enable" dynamodbav:"enable"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt       time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

type CreateUserRequest struct {
	Username        string  `json:"username" validate:"required,min=3,max=40"`
	Password        string  `json:"password" validate:"required,min=8,max=72"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           *string `json:"phone" validate:"omitempty,e164"`
	FirstName       string  `json:"first_name" validate:"required,max=80,singleline"`
	LastName        string  `json:"last_name" validate:"required,max=80,singleline"`
	Headline        string  `json:"headline" validate:"max=160"`
	CountryOfOrigin string  `json:"country_of_origin" validate:"omitempty,iso3166_1_alpha2"`
}

type UpdateUserRequest struct {
	Username        *string `json:"username" validate:"omitempty,min=3,max=40"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone" validate:"omitempty,e164"`
	FirstName       *string `json:"first_name" validate:"omitempty,max=80,singleline"`
	LastName        *string `json:"last_name" validate:"omitempty,max=80,singleline"`
	Headline        *string `json:"headline" validate:"omitempty,max=160"`
	CountryOfOrigin *string `json:"country_of_origin" validate:"omitempty,iso3166_1_alpha2"`
	Role            *string `json:"role"`
	Enable          *int    `json:"enable" validate:"omitempty,oneof=0 1"` // 1 = enabled, 0 = disabled
}
