package router

import (
	"net/http"

	"saladoverflow/internal/cache"
	"saladoverflow/internal/config"
	"saladoverflow/internal/handlers"
	"saladoverflow/internal/metrics"
	"saladoverflow/internal/middleware"
	"saladoverflow/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionName = "saladoverflow_session"

// New builds the engine with the full middleware chain and every route.
func New(cfg *config.AppConfig, gdb *gorm.DB, store cache.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, sessionStore))

	RegisterRoutes(r, gdb, store)
	return r
}

func RegisterRoutes(r *gin.Engine, gdb *gorm.DB, store cache.Store) {
	userService := services.NewUserService(gdb, store)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	postHandler := handlers.NewPostHandler(services.NewPostService(gdb, store))
	commentHandler := handlers.NewCommentHandler(services.NewCommentService(gdb, store))
	voteHandler := handlers.NewVoteHandler(services.NewVoteService(gdb, store))
	bookmarkHandler := handlers.NewBookmarkHandler(services.NewBookmarkService(gdb))
	tagHandler := handlers.NewTagHandler(services.NewTagService(gdb, store))
	userHandler := handlers.NewUserHandler(userService)
	notificationHandler := handlers.NewNotificationHandler(services.NewNotificationService(gdb))
	healthHandler := handlers.NewHealthHandler(gdb)

	r.GET("/health/live", healthHandler.Live)
	r.GET("/health/ready", healthHandler.Ready)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.LoadUser(userService))

	// 公共路由 (Public Routes)
	api.POST("/auth/register", authHandler.Register)               // 注册
	api.POST("/auth/login", authHandler.Login)                     // 登录
	api.POST("/auth/logout", authHandler.Logout)                   // 退出登录
	api.GET("/posts", postHandler.List)                            // 帖子列表
	api.GET("/posts/:id", postHandler.Detail)                      // 帖子详情
	api.GET("/posts/:id/comments", commentHandler.Tree)            // 评论树
	api.GET("/tags", tagHandler.List)                              // 标签列表
	api.GET("/users/top", userHandler.Top)                         // 积分排行
	api.GET("/users/search", userHandler.Search)                   // 用户搜索
	api.GET("/users/stats", userHandler.Stats)                     // 用户统计
	api.GET("/users/:display_name", userHandler.Profile)           // 用户主页
	api.GET("/users/:display_name/comments", userHandler.Comments) // 用户评论

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)                                // 当前用户
		authorized.PUT("/users/me", userHandler.UpdateMe)                         // 更新个人资料
		authorized.POST("/posts", postHandler.Create)                             // 发帖
		authorized.PUT("/posts/:id", postHandler.Update)                          // 编辑帖子
		authorized.DELETE("/posts/:id", postHandler.Delete)                       // 删除帖子
		authorized.POST("/posts/:id/lock", postHandler.Lock)                      // 锁定/解锁
		authorized.POST("/posts/:id/vote", voteHandler.VotePost)                  // 帖子投票
		authorized.POST("/posts/:id/bookmark", bookmarkHandler.Toggle)            // 收藏/取消收藏
		authorized.PUT("/posts/:id/tags", tagHandler.Attach)                      // 设置标签
		authorized.POST("/posts/:id/comments", commentHandler.Create)             // 发表评论
		authorized.POST("/posts/:id/comments/:cid/accept", commentHandler.Accept) // 采纳答案
		authorized.PUT("/comments/:cid", commentHandler.Update)                   // 编辑评论
		authorized.DELETE("/comments/:cid", commentHandler.Delete)                // 删除评论
		authorized.POST("/comments/:cid/vote", voteHandler.VoteComment)           // 评论投票
		authorized.GET("/bookmarks", bookmarkHandler.List)                        // 我的收藏

		authorized.GET("/notifications", notificationHandler.List)              // 通知列表
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll) // 全部标记为已读
		authorized.POST("/notifications/:id/read", notificationHandler.Read)    // 标记单条通知为已读
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)     // 删除单条通知
	}
}
