package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/krishna100204/EventApp/internal/helpers"
	"github.com/krishna100204/EventApp/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type TokenIssuer interface {
	Issue(userID, username string) (string, error)
	IssueGuest() (string, error)
}

type UserService struct {
	userRepo models.UserRepo
	tokens   TokenIssuer
	hashCost int
}

func NewUserService(userRepo models.UserRepo, tokens TokenIssuer) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionUser is what a client learns about itself after authenticating.
type SessionUser struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	IsGuest  bool   `json:"isGuest,omitempty"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

func (us *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	user := &models.User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: input.Password,
	}
	if err := models.Validate.Struct(user); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if !helpers.IsPasswordStrong(input.Password) {
		return nil, fmt.Errorf("%w: password is not strong enough", models.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), us.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	user.Password = string(hash)

	created, err := us.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: username or email already in use", models.ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

// Login accepts a username or an email address as identifier. The returned
// user is built from the stored record, never from the request.
func (us *UserService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = us.userRepo.GetUserByEmail(ctx, identifier)
	} else {
		user, err = us.userRepo.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := us.tokens.Issue(user.ID.Hex(), user.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token: token,
		User: SessionUser{
			ID:       user.ID.Hex(),
			Username: user.Username,
			Email:    user.Email,
		},
	}, nil
}

func (us *UserService) GuestSession() (*LoginResult, error) {
	token, err := us.tokens.IssueGuest()
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: SessionUser{IsGuest: true}}, nil
}

// Profile returns the stored user behind a session token.
func (us *UserService) Profile(ctx context.Context, userID string) (*SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID))
	if err != nil {
		return nil, models.ErrUnauthorized
	}

	user, err := us.userRepo.GetUserByID(ctx, oid)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("profile: %w", models.ErrUnauthorized)
		}
		return nil, err
	}

	return &SessionUser{ID: user.ID.Hex(), Username: user.Username, Email: user.Email}, nil
}
