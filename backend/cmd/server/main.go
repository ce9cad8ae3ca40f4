package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"kindred/backend/internal/adapter"
	"kindred/backend/internal/auth"
	"kindred/backend/internal/extraction"
	"kindred/backend/internal/graph"
	"kindred/backend/internal/messaging"
	"kindred/backend/internal/profile"
	"kindred/backend/internal/store"
	"kindred/backend/pkg/config"
	kerrors "kindred/backend/pkg/errors"
	"kindred/backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity",
			zap.Error(kerrors.NewGraphUnavailable(cfg.Neo4jURI, err)))
	}

	graphRepo := graph.NewRepository(driver)
	if err := graphRepo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	// Open relational store
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open relational store", zap.Error(err))
	}

	// Initialize dependencies
	users := store.NewUserRepository(db)
	messages := store.NewMessageRepository(db)
	llmAdapter := adapter.NewLLMAdapter(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ModelID)
	log.Info("LLM adapter configured", zap.String("model", llmAdapter.Model()))
	extractor := extraction.NewExtractor(llmAdapter)
	authService := auth.NewService(users, cfg.JWTSecret, cfg.TokenExpiry)
	profileService := profile.NewService(graphRepo, users)
	messagingService := messaging.NewService(messages, users)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	registerRoutes(router, cfg, log, authService, users, extractor, profileService, messagingService)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func registerRoutes(
	router *gin.Engine,
	cfg *config.Config,
	log *zap.Logger,
	authService *auth.Service,
	users *store.UserRepository,
	extractor *extraction.Extractor,
	profileService *profile.Service,
	messagingService *messaging.Service,
) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Registration
	router.POST("/register", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required,min=8"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hashed, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
			return
		}

		user, err := users.Create(c.Request.Context(), req.Username, req.Email, hashed)
		if err != nil {
			var dup *kerrors.ErrDuplicateUser
			if errors.As(err, &dup) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
				return
			}
			log.Error("Failed to create user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
	})

	// Token issuance
	router.POST("/token", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" form:"username" binding:"required"`
			Password string `json:"password" form:"password" binding:"required"`
		}
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
			return
		}

		token, err := authService.CreateAccessToken(user)
		if err != nil {
			log.Error("Failed to issue token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
	})

	// Authenticated API
	api := router.Group("/api", authService.RequireAuth())
	{
		// Chat: LLM reply plus best-effort characteristic extraction
		api.POST("/chat", func(c *gin.Context) {
			var req struct {
				Message string `json:"message" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			current := auth.CurrentUser(c)
			ctx := c.Request.Context()

			reply, characteristics := extractor.ProcessMessage(ctx, req.Message)
			if len(characteristics) > 0 {
				if err := profileService.UpdateCharacteristics(ctx, current.ID, characteristics); err != nil {
					log.Error("Failed to persist characteristics", zap.Error(err))
					c.JSON(http.StatusBadGateway, gin.H{"error": "Characteristic store unavailable"})
					return
				}
			}

			c.JSON(http.StatusOK, gin.H{"response": reply})
		})

		// Search users by free-text query
		api.POST("/search-users", func(c *gin.Context) {
			var req struct {
				Query string `json:"query" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			current := auth.CurrentUser(c)
			ctx := c.Request.Context()

			criteria := extractor.QueryToCharacteristics(ctx, req.Query)
			matches, err := profileService.SearchUsers(ctx, criteria, current.ID)
			if err != nil {
				log.Error("Search failed", zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": "Characteristic store unavailable"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"users": matches})
		})

		// Profile
		api.GET("/profile", func(c *gin.Context) {
			current := auth.CurrentUser(c)

			p, err := profileService.GetProfile(c.Request.Context(), current.ID)
			if err != nil {
				respondProfileError(c, log, err)
				return
			}

			c.JSON(http.StatusOK, p)
		})

		// Similarity suggestions
		api.GET("/suggestions", func(c *gin.Context) {
			current := auth.CurrentUser(c)

			limit := cfg.SuggestionLimit
			if raw := c.Query("limit"); raw != "" {
				if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
					limit = parsed
				}
			}

			matches, err := profileService.Suggestions(c.Request.Context(), current.ID, limit)
			if err != nil {
				respondProfileError(c, log, err)
				return
			}

			c.JSON(http.StatusOK, gin.H{"suggestions": matches})
		})

		// Direct messages
		api.POST("/send-message", func(c *gin.Context) {
			var req struct {
				RecipientID uint   `json:"recipient_id" binding:"required"`
				Content     string `json:"content" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			current := auth.CurrentUser(c)
			message, err := messagingService.Send(c.Request.Context(), current.ID, req.RecipientID, req.Content)
			if err != nil {
				var notFound *kerrors.ErrUserNotFound
				if errors.As(err, &notFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "Recipient not found"})
					return
				}
				log.Error("Failed to send message", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"id":        message.ID,
				"content":   message.Content,
				"timestamp": message.Timestamp,
			})
		})

		api.GET("/messages/:id", func(c *gin.Context) {
			otherID, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
				return
			}

			current := auth.CurrentUser(c)
			messages, err := messagingService.Conversation(c.Request.Context(), current.ID, uint(otherID))
			if err != nil {
				log.Error("Failed to fetch conversation", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"messages": messages})
		})

		api.DELETE("/messages/:id", func(c *gin.Context) {
			messageID, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message id"})
				return
			}

			current := auth.CurrentUser(c)
			deleted, err := messagingService.Delete(c.Request.Context(), uint(messageID), current.ID)
			if err != nil {
				log.Error("Failed to delete message", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
				return
			}
			if !deleted {
				c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"status": "deleted"})
		})

		api.GET("/conversations", func(c *gin.Context) {
			current := auth.CurrentUser(c)

			conversations, err := messagingService.ListConversations(c.Request.Context(), current.ID)
			if err != nil {
				log.Error("Failed to list conversations", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list conversations"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"conversations": conversations})
		})
	}
}

// respondProfileError maps profile/graph errors to HTTP status codes
func respondProfileError(c *gin.Context, log *zap.Logger, err error) {
	var notFound *kerrors.ErrUserNotFound
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if kerrors.IsErrorType(err, kerrors.ErrorTypeGraph) {
		log.Error("Graph store error", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Characteristic store unavailable"})
		return
	}
	log.Error("Profile operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

// corsMiddleware allows cross-origin requests from the web frontend
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
