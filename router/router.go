package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/controllers"
	"github.com/yeremiapane/qr-table-order/middlewares"
	"github.com/yeremiapane/qr-table-order/services"
)

// SetupRouter merakit seluruh route: permukaan publik untuk device
// customer (scan QR -> sesi -> submit order) dan route staff ber-JWT
// untuk dashboard polling.
func SetupRouter(db *gorm.DB, clock clockwork.Clock, sessionCfg services.SessionConfig) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// Rate limit global per IP (50 request/detik)
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	// Rakit service di atas satu SessionStore
	store := services.NewSessionStore(db)
	sessionSvc := services.NewSessionService(store, clock, sessionCfg)
	orderSvc := services.NewOrderService(store, services.NewGormCatalog(db), services.NewGormKitchen(), clock)

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db)
	categoryCtrl := controllers.NewMenuCategoryController(db)
	menuCtrl := controllers.NewMenuController(db)
	sessionCtrl := controllers.NewSessionController(sessionSvc)
	orderCtrl := controllers.NewOrderController(db, orderSvc)
	monitorCtrl := controllers.NewMonitorController(store, clock)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter ketat untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// -- CUSTOMER (tanpa auth; token sesi adalah capability-nya) --
	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/menus", menuCtrl.GetAllMenus)
	r.GET("/menus/by-category", menuCtrl.GetMenuByCategory)

	r.POST("/sessions", sessionCtrl.CreateSession)
	r.POST("/sessions/validate", sessionCtrl.ValidateSession)
	r.POST("/orders", orderCtrl.SubmitOrder)

	// ----------------------------------------------------------------
	//                      STAFF ROUTES (JWT)
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/users", userCtrl.GetAllUsers)
	auth.POST("/logout", userCtrl.Logout)

	// MONITOR FEED: view polling dashboard (~30 detik per poll)
	auth.GET("/sessions", monitorCtrl.ListSessions)
	auth.GET("/tables", monitorCtrl.ListTables)
	auth.GET("/dashboard/stats", monitorCtrl.GetDashboardStats)

	// Satu-satunya mutasi staff pada sesi
	auth.POST("/sessions/:session_id/end", sessionCtrl.EndSession)

	// TABLE INVENTORY
	auth.POST("/tables", middlewares.RequireRoles(), tableCtrl.CreateTable)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	auth.DELETE("/tables/:table_id", middlewares.RequireRoles(), tableCtrl.DeleteTable)
	auth.PATCH("/tables/:table_id/clean", middlewares.RequireRoles("staff"), tableCtrl.MarkTableClean)

	// MENU CATALOG (admin)
	auth.POST("/categories", middlewares.RequireRoles(), categoryCtrl.CreateCategory)
	auth.PATCH("/categories/:cat_id", middlewares.RequireRoles(), categoryCtrl.UpdateCategory)
	auth.DELETE("/categories/:cat_id", middlewares.RequireRoles(), categoryCtrl.DeleteCategory)

	auth.POST("/menus", middlewares.RequireRoles(), menuCtrl.CreateMenu)
	auth.GET("/menus/:menu_id", menuCtrl.GetMenuByID)
	auth.PATCH("/menus/:menu_id", middlewares.RequireRoles(), menuCtrl.UpdateMenu)
	auth.DELETE("/menus/:menu_id", middlewares.RequireRoles(), menuCtrl.DeleteMenu)

	// ORDERS (view dapur + update status)
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.PATCH("/orders/:order_id", middlewares.RequireRoles("staff"), orderCtrl.UpdateOrderStatus)

	return r
}
