package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ice webrtc.Configuration) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &Handlers{Orch: o, ICE: ice}
	api := r.Group("/api")

	api.GET("/room", h.listRooms)
	api.POST("/room", h.createRoom)
	api.GET("/room/:roomName", h.getRoom)
	api.PUT("/room/:roomName", h.updateRoom)
	api.DELETE("/room/:roomName", h.deleteRoom)
	api.POST("/room/:roomName/email", h.addParticipant)
	api.DELETE("/room/:roomName/email/:email", h.removeParticipant)

	api.POST("/user", h.bindPeer)
	api.GET("/user/:email/peer", h.peerForEmail)
	api.GET("/peer/:peerId/email", h.emailForPeer)

	api.GET("/ice", h.iceServers)

	ctrl := signal.NewSignalWSController(o, cfg)
	api.GET("/ws/signal", func(c *gin.Context) {
		id := sessionIdentity(c)
		log.Info().Str("module", "adapters.http").Str("client_token", c.GetString("client_token")).Str("email", string(id)).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c, id)
	})

	return r
}
