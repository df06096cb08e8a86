package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/apiroutes"
)

// APIRootHandler serves GET /api, listing every registered route.
func APIRootHandler(routes *apiroutes.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		registered := routes.Get()

		// One summary entry per top level resource, e.g. "tvshows" -> /api/tvshows.
		endpoints := gin.H{"self": "/api"}
		for _, route := range registered {
			rest := strings.TrimPrefix(route.Path, "/api/")
			if rest == route.Path || rest == "" {
				continue
			}
			key := strings.SplitN(rest, "/", 2)[0]
			if _, exists := endpoints[key]; !exists {
				endpoints[key] = "/api/" + key
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":            "OK",
			"endpoints":         endpoints,
			"registered_routes": registered,
		})
	}
}
