package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/aryapradana/galeri/internal/blob"
	"github.com/aryapradana/galeri/internal/config"
	"github.com/aryapradana/galeri/internal/crypt"
	"github.com/aryapradana/galeri/internal/http/handlers"
	"github.com/aryapradana/galeri/internal/http/middleware"
	"github.com/aryapradana/galeri/internal/ingest"
	"github.com/aryapradana/galeri/internal/storage"
)

func New(cfg *config.Config, logger *slog.Logger, store storage.Store, blobs *blob.Store, ids *crypt.IDCodec) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logging(logger))
	r.MaxMultipartMemory = 32 << 20

	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((14 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
	}

	pipeline := ingest.New(store.Photos(), blobs, logger, ingest.Limits{
		MaxBatch:     cfg.MaxBatch,
		MaxFileBytes: cfg.MaxFileBytes,
	})

	authHandler := handlers.NewAuthHandler(logger, store.Users(), sessionStore, cfg.SessionCookie)
	photoHandler := handlers.NewPhotoHandler(
		logger,
		store.Photos(),
		store.Albums(),
		blobs,
		pipeline,
		ids,
		cfg.MaxFileBytes,
		cfg.UploadTimeout,
	)
	albumHandler := handlers.NewAlbumHandler(logger, store.Albums(), store.Photos(), ids)
	archiveHandler := handlers.NewArchiveHandler(logger, store.Users(), store.Photos(), ids, sessionStore, cfg.SessionCookie)

	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	protected := r.Group("/")
	protected.Use(middleware.RequireUser(sessionStore, cfg.SessionCookie))

	protected.PATCH("/account/password", authHandler.UpdatePassword)

	protected.GET("/photos", photoHandler.List)
	protected.GET("/photos/favorites", photoHandler.Favorites)
	protected.POST("/photos/single-upload", photoHandler.SingleUpload)
	protected.POST("/photos/multi-upload", photoHandler.MultiUpload)
	protected.PATCH("/photos/archive", photoHandler.Archive)
	protected.PATCH("/photos/unarchive", photoHandler.Unarchive)
	protected.PATCH("/photos/favorite", photoHandler.Favorite)
	protected.PATCH("/photos/title", photoHandler.Retitle)
	protected.PATCH("/photos/move", photoHandler.Move)
	protected.DELETE("/photos", photoHandler.Delete)
	protected.GET("/api/photos/:id", photoHandler.Detail)
	protected.GET("/files/*path", photoHandler.Access)
	protected.GET("/download/*path", photoHandler.Download)

	protected.GET("/albums", albumHandler.List)
	protected.POST("/albums", albumHandler.Create)
	protected.GET("/albums/:id", albumHandler.Show)
	protected.PATCH("/albums/:id", albumHandler.Rename)
	protected.DELETE("/albums/:id", albumHandler.Delete)
	protected.POST("/albums/:id/photos", albumHandler.AddPhotos)

	protected.POST("/archive/verify", archiveHandler.Verify)
	protected.GET("/archive", archiveHandler.Content)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "not found"})
	})

	return r
}
