package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-dashboard-api/internal/middleware"
	"github.com/noah-isme/school-dashboard-api/internal/models"
)

// actorFromContext converts the verified claims into the actor passed to services. It is nil when
// the route is not behind JWT.
func actorFromContext(c *gin.Context) *models.Actor {
	return models.ActorFromClaims(middleware.ClaimsFromContext(c))
}
