package routes

import (
	"github.com/gin-gonic/gin"

	"husaride/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, d Deps) {
	if d.Hub == nil {
		return
	}
	ctl := controllers.NewWebSocketController(d.Hub, d.Issuer)
	ws := r.Group("/ws")
	{
		ws.GET("/rides", ctl.HandleRideFeed)
	}
}
