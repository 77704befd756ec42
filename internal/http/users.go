package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/containerhub/containerhub/internal/auth"
	"github.com/containerhub/containerhub/internal/entities"
)

type UsersController struct {
	authService *auth.Service
}

func NewUsersController(authService *auth.Service) *UsersController {
	return &UsersController{
		authService: authService,
	}
}

type createUserRequest struct {
	Username       string `json:"username" binding:"required"`
	Email          string `json:"email"`
	Password       string `json:"password" binding:"required"`
	Role           string `json:"role" binding:"required"`
	OrganizationID uint   `json:"organization_id"`
}

// CreateUser provisions an account in the caller's organization unless
// an explicit organization is given. Admin only.
func (controller *UsersController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orgID := req.OrganizationID
	if orgID == 0 {
		orgID = auth.OrgFromContext(c)
	}

	user, err := controller.authService.CreateUser(orgID, req.Username, req.Email, req.Password, entities.UserRole(req.Role))
	if errors.Is(err, auth.ErrUsernameTaken) {
		c.IndentedJSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusCreated, gin.H{
		"id":              user.ID,
		"username":        user.Username,
		"role":            user.Role,
		"organization_id": user.OrganizationID,
	})
}

type generateTokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GenerateToken exchanges credentials for a fresh API token. The plain
// token is shown exactly once; only its hash is stored.
func (controller *UsersController) GenerateToken(c *gin.Context) {
	var req generateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := controller.authService.Authenticate(req.Username, req.Password)
	if err != nil {
		c.IndentedJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := controller.authService.GenerateToken(user.ID)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"token": token})
}

// RevokeToken invalidates the caller's API token.
func (controller *UsersController) RevokeToken(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	if userID == auth.DefaultUserID {
		c.IndentedJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	if err := controller.authService.RevokeToken(userID); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"revoked": true})
}
