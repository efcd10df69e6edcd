// Package httpx holds the JSON envelope and request helpers shared by every
// handler package.
package httpx

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/auth"
)

// Response envelope: code 0 on success, otherwise HTTP status * 100 + detail
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse list envelope
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

// Error writes code with HTTP status code/100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID authenticated user id set by JWTAuth
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

func GetUserName(c *gin.Context) string {
	return c.GetString("user_name")
}

// HasRole reports whether the authenticated user carries role.
func HasRole(c *gin.Context, role string) bool {
	roles, _ := c.Get("roles")
	list, _ := roles.([]string)
	for _, r := range list {
		if r == role {
			return true
		}
	}
	return false
}

// ActorFrom the authenticated caller; the admin role grants factory access.
func ActorFrom(c *gin.Context) auth.Actor {
	return auth.Actor{
		ID:    GetUserID(c),
		Name:  GetUserName(c),
		Admin: HasRole(c, "admin"),
	}
}

// GetPagination reads page/page_size, defaulting to 1/20 and capping at 100.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}
