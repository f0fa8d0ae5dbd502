package apiserver

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reunion/internal/auth"
	"reunion/internal/config"
	"reunion/internal/directory"
	"reunion/internal/events"
	"reunion/internal/middleware"
	"reunion/internal/services"
	ws "reunion/internal/websocket"
)

// RouterDeps 汇总构建路由所需的服务。
type RouterDeps struct {
	JWTSecret      string
	Blacklist      auth.TokenBlacklist
	Auth           services.AuthService
	Users          services.UserService
	Relationships  services.RelationshipService
	Profiles       services.ProfileService
	Searcher       *directory.Searcher
	Notifications  events.NotificationStore
	// Hub 为空时不注册实时通知路由。
	Hub            *ws.Hub
	WebSocket      config.WebSocketConfig
	// MetricsHandler 为空时使用 promhttp.Handler()。
	MetricsHandler http.Handler
}

// NewRouter wires every HTTP route. Everything under /api/v1 requires a bearer token.
func NewRouter(deps RouterDeps) *mux.Router {
	authHandler := NewAuthHandler(deps.Auth, deps.Users)
	relationshipHandler := NewRelationshipHandler(deps.Relationships)
	friendHandler := NewFriendHandler(deps.Relationships)
	profileHandler := NewProfileHandler(deps.Profiles)
	searchHandler := NewSearchHandler(deps.Searcher)
	notificationHandler := NewNotificationHandler(deps.Notifications)

	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	// 认证路由
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	// 实时通知 (WebSocket 自行校验 token)
	if deps.Hub != nil {
		wsHandler := NewWebSocketHandler(deps.Hub, deps.JWTSecret, deps.Blacklist, deps.WebSocket)
		r.HandleFunc("/ws/notifications", wsHandler.ServeWS).Methods(http.MethodGet)
	}

	// API 子路由 (需要认证)
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.AuthMiddleware(deps.JWTSecret, deps.Blacklist))

	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/user", authHandler.CurrentUser).Methods(http.MethodGet)

	// 好友请求
	reunite := apiRouter.PathPrefix("/reunite").Subrouter()
	reunite.HandleFunc("", relationshipHandler.CreateRequest).Methods(http.MethodPost)
	reunite.HandleFunc("", relationshipHandler.ListPending).Methods(http.MethodGet)
	reunite.HandleFunc("/sent", relationshipHandler.ListSent).Methods(http.MethodGet)
	reunite.HandleFunc("/received", relationshipHandler.ListReceived).Methods(http.MethodGet)
	reunite.HandleFunc("/history", relationshipHandler.ListHistory).Methods(http.MethodGet)
	reunite.HandleFunc("/{id:[0-9]+}", relationshipHandler.GetRequest).Methods(http.MethodGet)
	reunite.HandleFunc("/{id:[0-9]+}/accept", relationshipHandler.Accept).Methods(http.MethodPost)
	reunite.HandleFunc("/{id:[0-9]+}/reject", relationshipHandler.Reject).Methods(http.MethodPost)
	reunite.HandleFunc("/{id:[0-9]+}/cancel", relationshipHandler.Cancel).Methods(http.MethodPost)

	// 好友关系
	reunited := apiRouter.PathPrefix("/reunited").Subrouter()
	reunited.HandleFunc("", friendHandler.ListFriendships).Methods(http.MethodGet)
	reunited.HandleFunc("/my_friends", friendHandler.MyFriends).Methods(http.MethodGet)
	reunited.HandleFunc("/unfriend", friendHandler.Unfriend).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/memory-search", searchHandler.MemorySearch).Methods(http.MethodGet)

	// 档案
	apiRouter.HandleFunc("/profiles", profileHandler.List).Methods(http.MethodGet)
	apiRouter.HandleFunc("/profiles", profileHandler.Create).Methods(http.MethodPost)
	apiRouter.HandleFunc("/profiles/me", profileHandler.UpdateMine).Methods(http.MethodPut)
	apiRouter.HandleFunc("/profiles/{username}", profileHandler.Get).Methods(http.MethodGet)

	apiRouter.HandleFunc("/notifications", notificationHandler.List).Methods(http.MethodGet)

	return r
}

// WithCORS 将处理器包装在按配置构建的 CORS 中间件中。
func WithCORS(cfg config.CORSConfig, h http.Handler) http.Handler {
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods(cfg.AllowedMethods),
		handlers.AllowedHeaders(cfg.AllowedHeaders),
		handlers.ExposedHeaders(cfg.ExposedHeaders),
		handlers.MaxAge(cfg.MaxAge),
	}
	if cfg.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	return handlers.CORS(corsOptions...)(h)
}
