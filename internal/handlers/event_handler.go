package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/krishna100204/EventApp/internal/helpers"
	"github.com/krishna100204/EventApp/internal/models"
	"github.com/krishna100204/EventApp/internal/services"
)

const maxImageBytes = 5 << 20

type EventSvc interface {
	Attend(ctx context.Context, eventID, userID string) (*services.AttendResult, error)
	CreateEvent(ctx context.Context, input services.CreateEventInput, creatorID string) (*models.Event, error)
	ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.EventWithCreator, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

func ListEvents(es EventSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := helpers.ParseDate(c.Query("startDate"), false)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}
		to, err := helpers.ParseDate(c.Query("endDate"), true)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		events, err := es.ListEvents(c.Request.Context(), models.EventFilter{
			Category: c.Query("category"),
			From:     from,
			To:       to,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(events, ""))
	}
}

func GetEvent(es EventSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := es.GetEvent(c.Request.Context(), c.Param("eventId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, ""))
	}
}

func CreateEvent(es EventSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok || claims.IsGuest() {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized"))
			return
		}

		scheduled := c.PostForm("scheduledAt")
		if scheduled == "" {
			scheduled = c.PostForm("date")
		}
		scheduledAt, err := helpers.ParseDate(scheduled, false)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		input := services.CreateEventInput{
			Title:       c.PostForm("title"),
			Description: c.PostForm("description"),
			Location:    c.PostForm("location"),
			Category:    c.PostForm("category"),
			ScheduledAt: scheduledAt,
		}

		file, header, err := c.Request.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			if header.Size > maxImageBytes {
				c.JSON(http.StatusBadRequest, models.ErrorResponse(fmt.Sprintf("image exceeds %d bytes", maxImageBytes)))
				return
			}
			input.Image = file
			input.ImageName = header.Filename
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		default:
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid image upload"))
			return
		}

		event, err := es.CreateEvent(c.Request.Context(), input, claims.Identity())
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(event, "Event created successfully"))
	}
}

func AttendEvent(es EventSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized"))
			return
		}

		userID := ""
		if !claims.IsGuest() {
			userID = claims.Identity()
		}

		res, err := es.Attend(c.Request.Context(), c.Param("eventId"), userID)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(res, "Attendance recorded"))
	}
}
