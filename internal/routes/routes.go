package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"servo-system/internal/controllers"
	"servo-system/internal/integrations/gsx"
	gsxmock "servo-system/internal/integrations/gsx/mock"
	"servo-system/internal/jobs"
	"servo-system/internal/listeners"
	"servo-system/internal/repositories"
	"servo-system/internal/services"
	"servo-system/pkg/config"
	"servo-system/pkg/eventbus"
	"servo-system/pkg/messaging"
	"servo-system/pkg/middleware"
	"servo-system/pkg/taskqueue"
)

// InitRouter собирает весь граф зависимостей: репозитории, сервисы,
// слушатели шины и HTTP-маршруты. Возвращает очередь задач с её
// обработчиками и cron-задачу — их запускает main.
func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	cfg *config.Config,
	logger *zap.Logger,
) (*taskqueue.Queue, map[string]taskqueue.Handler, *jobs.RepairStatusJob) {
	// Репозитории.
	txManager := repositories.NewTxManager(dbConn)
	orderRepo := repositories.NewOrderRepository(dbConn, logger)
	queueRepo := repositories.NewQueueRepository(dbConn)
	eventRepo := repositories.NewEventRepository(dbConn)
	historyRepo := repositories.NewOrderHistoryRepository(dbConn)
	userRepo := repositories.NewUserRepository(dbConn)
	tagRepo := repositories.NewTagRepository(dbConn)
	deviceRepo := repositories.NewDeviceRepository(dbConn)
	repairRepo := repositories.NewRepairRepository(dbConn)
	accountRepo := repositories.NewGsxAccountRepository(dbConn)
	itemRepo := repositories.NewOrderItemRepository(dbConn)
	purchaseRepo := repositories.NewPurchaseRepository(dbConn)
	inventoryRepo := repositories.NewInventoryRepository(dbConn)
	ruleRepo := repositories.NewRuleRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// Инфраструктура.
	bus := eventbus.New(logger)
	taskQueue := taskqueue.New(redisClient, cfg.Queue.TaskListKey, logger)
	var gsxClient gsx.ClientInterface
	if cfg.Gsx.BaseURL != "" {
		gsxClient = gsx.New(cfg.Gsx.BaseURL, cfg.Gsx.Timeout, logger)
	} else {
		logger.Warn("GSX не настроен, используется имитация")
		gsxClient = gsxmock.New(logger)
	}

	var gateway messaging.ServiceInterface
	if cfg.Messaging.GatewayURL != "" {
		gateway = messaging.NewService(cfg.Messaging.GatewayURL, cfg.Messaging.Sender)
	} else {
		logger.Warn("Шлюз сообщений не настроен, SMS и email уходят в лог")
		gateway = messaging.NewMockService(logger)
	}

	// Сервисы.
	timer := services.NewStatusTimerService(historyRepo, logger)
	settingsService := services.NewSettingsService(cacheRepo, cfg, logger)
	orderService := services.NewOrderService(
		txManager, orderRepo, queueRepo, eventRepo, userRepo, tagRepo,
		deviceRepo, repairRepo, accountRepo, timer, bus, cfg, logger,
	)
	orderItemService := services.NewOrderItemService(txManager, itemRepo, orderRepo, inventoryRepo, logger)
	repairService := services.NewRepairService(
		txManager, repairRepo, orderRepo, itemRepo, purchaseRepo,
		deviceRepo, accountRepo, gsxClient, orderService, logger,
	)
	purchaseService := services.NewPurchaseService(
		txManager, purchaseRepo, inventoryRepo, accountRepo,
		gsxClient, orderService, cfg, logger,
	)
	ruleEngine := services.NewRuleEngineService(
		txManager, ruleRepo, orderRepo, queueRepo, deviceRepo,
		cacheRepo, orderService, taskQueue, logger,
	)
	batchService := services.NewBatchService(orderRepo, orderService, taskQueue, logger)
	authService := services.NewAuthService(userRepo, cfg, logger)
	queueService := services.NewQueueService(txManager, queueRepo, logger)

	// Слушатели шины событий.
	listeners.NewRuleListener(ruleEngine, logger).Register(bus)
	listeners.NewNotificationListener(eventRepo, userRepo, settingsService, taskQueue, logger).Register(bus)
	listeners.NewRepairAutocloseListener(repairService, settingsService, logger).Register(bus)

	// Контроллеры.
	authController := controllers.NewAuthController(authService, logger)
	orderController := controllers.NewOrderController(orderService, orderItemService, logger)
	repairController := controllers.NewRepairController(repairService, logger)
	purchaseController := controllers.NewPurchaseController(purchaseService, logger)
	ruleController := controllers.NewRuleController(ruleEngine, logger)
	queueController := controllers.NewQueueController(queueService, logger)
	settingsController := controllers.NewSettingsController(settingsService, logger)
	batchController := controllers.NewBatchController(batchService, logger)

	e.POST("/auth/login", authController.Login)

	api := e.Group("/api", middleware.JWTAuth(cfg.JWT, logger))

	registerOrderRoutes(api, orderController, repairController, purchaseController)
	registerRepairRoutes(api, repairController)
	registerPurchaseRoutes(api, purchaseController)
	registerQueueRoutes(api, queueController)

	api.GET("/rules", ruleController.GetRules)
	api.POST("/rules", ruleController.CreateRule)
	api.DELETE("/rules/:id", ruleController.DeleteRule)
	api.POST("/rules/import", ruleController.Import)

	api.GET("/settings", settingsController.Get)
	api.PATCH("/settings", settingsController.Update)
	api.POST("/settings/reload", settingsController.Reload)

	api.POST("/batch", batchController.Enqueue)
	api.POST("/batch/sync", batchController.Process)

	handlers := jobs.NewHandlers(gateway, batchService, logger)
	statusJob := jobs.NewRepairStatusJob(repairService, cfg.Install.SystemUserID, logger)

	return taskQueue, handlers, statusJob
}

func registerOrderRoutes(
	api *echo.Group,
	orders *controllers.OrderController,
	repairs *controllers.RepairController,
	purchases *controllers.PurchaseController,
) {
	api.POST("/orders", orders.CreateOrder)
	api.GET("/orders", orders.GetOrders)
	api.GET("/orders/:id", orders.FindOrder)
	api.PATCH("/orders/:id", orders.UpdateOrder)
	api.POST("/orders/:id/duplicate", orders.Duplicate)

	api.POST("/orders/:id/assign", orders.Assign)
	api.DELETE("/orders/:id/assign", orders.Unassign)
	api.PUT("/orders/:id/queue", orders.SetQueue)
	api.DELETE("/orders/:id/queue", orders.UnsetQueue)
	api.PUT("/orders/:id/status", orders.SetStatus)
	api.DELETE("/orders/:id/status", orders.UnsetStatus)
	api.PUT("/orders/:id/priority", orders.SetPriority)
	api.POST("/orders/:id/close", orders.Close)
	api.POST("/orders/:id/reopen", orders.Reopen)
	api.POST("/orders/:id/notify", orders.Notify)

	api.POST("/orders/:id/followers", orders.AddFollower)
	api.POST("/orders/:id/followers/toggle", orders.ToggleFollower)
	api.DELETE("/orders/:id/followers/:userId", orders.RemoveFollower)

	api.POST("/orders/:id/tags", orders.AddTag)
	api.POST("/orders/:id/tags/title", orders.AddTagByTitle)
	api.DELETE("/orders/:id/tags/:tagId", orders.RemoveTag)

	api.POST("/orders/:id/devices", orders.AddDevice)
	api.DELETE("/orders/:id/devices/:deviceId", orders.RemoveDevice)

	api.POST("/orders/:id/items", orders.AddItem)
	api.GET("/orders/:id/items", orders.ListItems)
	api.DELETE("/orders/:id/items/:itemId", orders.RemoveItem)

	api.GET("/orders/:id/repairs", repairs.ListByOrder)
	api.GET("/orders/:id/purchase-orders", purchases.ListByOrder)
}

func registerRepairRoutes(api *echo.Group, repairs *controllers.RepairController) {
	api.POST("/repairs", repairs.Create)
	api.GET("/repairs/:id", repairs.FindRepair)
	api.GET("/repairs/:id/parts", repairs.ListParts)
	api.POST("/repairs/:id/submit", repairs.Submit)
	api.POST("/repairs/:id/close", repairs.Close)
	api.GET("/repairs/:id/mark-complete", repairs.CanMarkComplete)
	api.POST("/repairs/:id/refresh", repairs.RefreshDetails)
	api.POST("/repairs/:id/duplicate", repairs.Duplicate)
	api.POST("/repairs/import", repairs.Import)
	api.POST("/repairs/parts/:partId/resend", repairs.ResendPart)
}

func registerPurchaseRoutes(api *echo.Group, purchases *controllers.PurchaseController) {
	api.POST("/purchase-orders", purchases.Create)
	api.GET("/purchase-orders/:id", purchases.FindPurchaseOrder)
	api.DELETE("/purchase-orders/:id", purchases.Cancel)
	api.GET("/purchase-orders/:id/items", purchases.ListItems)
	api.POST("/purchase-orders/:id/items", purchases.AddItem)
	api.DELETE("/purchase-orders/items/:itemId", purchases.RemoveItem)
	api.POST("/purchase-orders/:id/submit", purchases.Submit)
	api.POST("/purchase-orders/items/:itemId/receive", purchases.ReceiveItem)
}

func registerQueueRoutes(api *echo.Group, queues *controllers.QueueController) {
	api.GET("/queues", queues.GetQueues)
	api.POST("/queues", queues.CreateQueue)
	api.GET("/queues/:id", queues.FindQueue)
	api.PATCH("/queues/:id", queues.UpdateQueue)
	api.PUT("/queues/:id/milestone", queues.SetMilestone)
	api.GET("/queues/:id/statuses", queues.GetQueueStatuses)
	api.POST("/queues/:id/statuses", queues.AddStatusToQueue)

	api.GET("/statuses", queues.GetStatuses)
	api.POST("/statuses", queues.CreateStatus)
}
