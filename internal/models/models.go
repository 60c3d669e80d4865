package models

import (
	"errors"
	"time"
)

// FieldError describes a rejected input field. Responses carry a list of them
// instead of failing the whole request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UserView is the serialisable form of a user. It is built only through
// privacy.Project, which decides whether Email is revealed.
type UserView struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	ProfilePictureURL string    `json:"profilePictureUrl"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type UserResponse struct {
	Errors []FieldError `json:"errors,omitempty"`
	User   *UserView    `json:"user,omitempty"`
}

// ErrorsResponse is the body of a 400 answer for rejected input.
type ErrorsResponse struct {
	Errors []FieldError `json:"errors"`
}

type BoolResponse struct {
	Result bool `json:"result"`
}

type RegisterRequest struct {
	Username          string `json:"username" validate:"min=3,excludes=@"`
	Email             string `json:"email" validate:"email"`
	Password          string `json:"password" validate:"min=3"`
	ProfilePictureURL string `json:"profilePictureUrl" validate:"omitempty,url"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type Note struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatorID int64     `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NoteRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

type PaginatedNotes struct {
	Notes   []Note `json:"notes"`
	HasMore bool   `json:"hasMore"`
	Cursor  string `json:"cursor,omitempty"`
}

type Category struct {
	ID             int64     `json:"id"`
	Colour         string    `json:"colour"`
	Tag            string    `json:"tag"`
	PossibleValues []string  `json:"possibleValues"`
	Type           string    `json:"type"`
	CreatorID      int64     `json:"creatorId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CategoryRequest struct {
	Colour         string   `json:"colour" validate:"required,hexcolor"`
	Tag            string   `json:"tag" validate:"required,max=64"`
	PossibleValues []string `json:"possibleValues" validate:"dive,required"`
	Type           string   `json:"type" validate:"required,oneof=text number boolean select"`
}

type Log struct {
	ID         int64     `json:"id"`
	Body       string    `json:"body"`
	DateStart  time.Time `json:"dateStart"`
	DateEnd    time.Time `json:"dateEnd"`
	CategoryID int64     `json:"categoryId"`
	CreatorID  int64     `json:"creatorId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type LogRequest struct {
	Body       string    `json:"body" validate:"required"`
	DateStart  time.Time `json:"dateStart" validate:"required"`
	DateEnd    time.Time `json:"dateEnd" validate:"required"`
	CategoryID int64     `json:"categoryId" validate:"required,gt=0"`
}

type PaginatedLogs struct {
	Logs    []Log  `json:"logs"`
	HasMore bool   `json:"hasMore"`
	Cursor  string `json:"cursor,omitempty"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeMemory
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
	ErrTagTaken      = errors.New("category tag already taken")
	ErrColourTaken   = errors.New("category colour already taken")
)
