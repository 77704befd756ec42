package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/containerhub/containerhub/internal/entities"
)

// parseIDParam parses the :id path parameter as an unsigned integer.
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// visibilitiesForRole maps a role to the visibility levels it may read.
func visibilitiesForRole(role entities.UserRole) []entities.Visibility {
	switch role {
	case entities.UserRoleAdmin:
		return []entities.Visibility{
			entities.VisibilityPublic,
			entities.VisibilityRestricted,
			entities.VisibilityAdminOnly,
		}
	case entities.UserRoleEditor:
		return []entities.Visibility{
			entities.VisibilityPublic,
			entities.VisibilityRestricted,
		}
	default:
		return []entities.Visibility{entities.VisibilityPublic}
	}
}
