package models

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
)

type ApiResponse struct {
	Message         string          `json:"message"`
	Title           string          `json:"title,omitempty"`
	Data            any             `json:"data,omitempty"`
	Error           bool            `json:"error,omitempty"`
	Meta            *Pagination     `json:"meta"`
	Rate            *RateLimiter    `json:"rate_limit,omitempty"`
	RequestedEntity string          `json:"requested_entity,omitempty"`
	Notices         []events.Notice `json:"notices,omitempty"`
}

type Pagination struct {
	Page       int `json:"page" example:"1"`
	Limit      int `json:"limit" example:"10"`
	Total      int `json:"total" example:"42"`
	TotalPages int `json:"total_pages" example:"5"`
}

type RateLimiter struct {
	Limit          int       `json:"limit"`
	Remaining      int       `json:"remaining"`
	ResetAt        time.Time `json:"reset_at"`
	ResetInSeconds int       `json:"reset_in_seconds"`
}

// advisories raised by hooks during the request
func getNotices(c *gin.Context) []events.Notice {
	if c == nil || c.Request == nil {
		return nil
	}
	return events.Notices(c.Request.Context())
}

// helper to fetch rate limiter info from Gin context
func getRateFromContext(c *gin.Context) *RateLimiter {
	if c == nil {
		return nil
	}
	if rate, exists := c.Get("rateLimiter"); exists {
		if rl, ok := rate.(*RateLimiter); ok {
			return rl
		}
	}
	return nil
}

func SuccessResponse(c *gin.Context, message string, data any) ApiResponse {
	return ApiResponse{
		Message:         message,
		Data:            data,
		Rate:            getRateFromContext(c),
		RequestedEntity: c.Request.Method + " " + c.FullPath(),
		Notices:         getNotices(c),
	}
}

func PaginatedResponse(c *gin.Context, message string, data any, meta *Pagination) ApiResponse {
	return ApiResponse{
		Message:         message,
		Data:            data,
		Meta:            meta,
		Rate:            getRateFromContext(c),
		RequestedEntity: c.Request.Method + " " + c.FullPath(),
		Notices:         getNotices(c),
	}
}

func ErrorResponse(c *gin.Context, message string) ApiResponse {
	return ApiResponse{
		Message:         message,
		Error:           true,
		Rate:            getRateFromContext(c),
		RequestedEntity: c.Request.Method + " " + c.FullPath(),
		Notices:         getNotices(c),
	}
}

// AppErrorResponse maps an application error to its status code and
// envelope. Internal errors get a generic message.
func AppErrorResponse(c *gin.Context, err error) (int, ApiResponse) {
	resp := ErrorResponse(c, apperrors.PublicMessage(err))
	resp.Title = apperrors.TitleOf(err)
	return apperrors.HTTPStatus(err), resp
}
