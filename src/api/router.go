package api

import (
	"context"
	"math/big"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stake-plus/multisig-comms/src/multisig"
)

// CallReader is the read side of the call store.
type CallReader interface {
	Get(ctx context.Context, hash multisig.CallHash) (multisig.CallState, error)
	List(ctx context.Context) ([]multisig.CallState, error)
}

type Options struct {
	// JWTSecret enables bearer authentication on /v1/calls when set.
	JWTSecret    string
	AllowOrigins []string
	GuildID      string
	DisplayScale *big.Int
	// Cursor, when set, is reported by /v1/health.
	Cursor multisig.CursorStore
	// RateLimit is requests per minute per client; zero disables limiting.
	RateLimit int
}

// New builds the status API router.
func New(store CallReader, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	callsH := &Calls{
		store:   store,
		cursor:  opts.Cursor,
		guildID: opts.GuildID,
		render:  multisig.Renderer{Scale: opts.DisplayScale},
	}

	v1 := r.Group("/v1")
	v1.GET("/health", callsH.Health)

	secured := v1.Group("/calls")
	if opts.JWTSecret != "" {
		secured.Use(JWTMiddleware([]byte(opts.JWTSecret)))
	}
	if opts.RateLimit > 0 {
		secured.Use(RateLimitMiddleware(NewRateLimiter(opts.RateLimit, time.Minute)))
	}
	secured.GET("", callsH.List)
	secured.GET("/:hash", callsH.Get)

	return r
}
