package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/krishna100204/EventApp/internal/models"
	"github.com/krishna100204/EventApp/internal/services"
)

type UserSvc interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*services.LoginResult, error)
	GuestSession() (*services.LoginResult, error)
	Profile(ctx context.Context, userID string) (*services.SessionUser, error)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password" binding:"required"`
}

func (r loginRequest) id() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Email != "":
		return r.Email
	default:
		return r.Username
	}
}

func Register(us UserSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		user, err := us.Register(c.Request.Context(), input)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(services.SessionUser{
			ID:       user.ID.Hex(),
			Username: user.Username,
			Email:    user.Email,
		}, "User registered successfully"))
	}
}

func Login(us UserSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}

		res, err := us.Login(c.Request.Context(), req.id(), req.Password)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(res, "Logged in"))
	}
}

func Guest(us UserSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := us.GuestSession()
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(res, ""))
	}
}

func Me(us UserSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized"))
			return
		}
		if claims.IsGuest() {
			c.JSON(http.StatusOK, models.SuccessResponse(services.SessionUser{IsGuest: true}, ""))
			return
		}

		user, err := us.Profile(c.Request.Context(), claims.Identity())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}
