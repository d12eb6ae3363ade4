package dto

import "github.com/google/uuid"

type UserDTO struct {
	Id       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Image    *string   `json:"image,omitempty"`
	Role     string    `json:"role"`
	Tier     string    `json:"tier"`
	Approved bool      `json:"approved"`
}

type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	User        UserDTO `json:"user"`
}
