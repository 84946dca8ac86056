package server

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/thereayou/vibelink/internal/database"
	"github.com/thereayou/vibelink/internal/handlers"
	"github.com/thereayou/vibelink/internal/services"
	"github.com/thereayou/vibelink/internal/websocket"
	"github.com/thereayou/vibelink/pkg/auth"
	"github.com/thereayou/vibelink/pkg/upload"
	"github.com/thereayou/vibelink/pkg/usercache"
	"log"
	"os"
	"time"
)

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *websocket.Hub
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	// Хаб один на процесс, стартует пустым и держит реестр подписок
	hub := websocket.NewHub(dbConn)
	go hub.Run()

	names := usercache.NewCache(rdb, func(id uuid.UUID) (string, error) {
		user, err := dbConn.GetUser(id)
		if err != nil {
			return "", err
		}
		return user.Username, nil
	}, 10*time.Minute)

	messageSvc := services.NewMessageService(dbConn, dbConn, dbConn, hub)
	friendshipSvc := services.NewFriendshipService(dbConn, dbConn, names, hub)
	groupSvc := services.NewGroupService(dbConn, dbConn, hub)

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads/images"
	}
	uploadStore, err := upload.NewLocalStore(uploadDir, "/uploads/images")
	if err != nil {
		log.Fatalf("upload dir init failed: %v", err)
	}

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	userH := handlers.NewUserHandler(dbConn, names, hub)
	friendshipH := handlers.NewFriendshipHandler(friendshipSvc)
	chatH := handlers.NewChatHandler(messageSvc)
	groupH := handlers.NewGroupHandler(groupSvc, messageSvc)
	uploadH := handlers.NewUploadHandler(uploadStore, messageSvc)
	eventH := handlers.NewEventHandler(messageSvc, hub)
	wsH := handlers.NewWebSocketHandler(hub, eventH)

	router := gin.Default()
	APIEndpoints(router, &Handlers{
		JWT:        jwtMgr,
		Redis:      rdb,
		Auth:       authH,
		User:       userH,
		Friendship: friendshipH,
		Chat:       chatH,
		Group:      groupH,
		Upload:     uploadH,
		WS:         wsH,
	})

	return &Server{
		Router: router,
		DB:     dbConn,
		Redis:  rdb,
		Hub:    hub,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}

// Stop останавливает хаб, снимая все подписки
func (s *Server) Stop() {
	s.Hub.Stop()
}
