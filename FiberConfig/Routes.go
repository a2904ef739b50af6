package FiberConfig

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"AuditDesk/Config"
	"AuditDesk/Controllers"
	"AuditDesk/Lifecycle"
	"AuditDesk/Models"
	"AuditDesk/middleware"
)

// Deps is everything the HTTP layer needs from main.
type Deps struct {
	Config Config.Config
	Store  Models.SheetStore
	Clock  Lifecycle.Clock
	Log    *zap.Logger
}

// LoginLimit bounds login attempts per client IP and minute.
const LoginLimit = 10

func SetupRoutes(app *fiber.App, d Deps) error {
	validate, err := Controllers.NewValidator(d.Config.Branches, d.Config.TaskTypes)
	if err != nil {
		return err
	}

	tasks := Models.NewTaskRepository(d.Store)
	users := Models.NewUserRepository(d.Store)
	auth := middleware.NewAuth(users, d.Config.JWTSecret, d.Log)
	policy := Lifecycle.CountPolicy{FreezeCompleted: d.Config.FreezeCompletedCounts}

	authController := Controllers.NewAuthController(users, auth, validate, d.Log)
	taskController := Controllers.NewTaskController(tasks, users, validate, d.Clock, policy, d.Log)
	userController := Controllers.NewUserController(users, validate, d.Log)
	reportController := Controllers.NewReportController(tasks, d.Log)
	exportController := Controllers.NewExportController(tasks, d.Clock, d.Log)
	logController := Controllers.NewLogController(d.Config.RequestLogPath, d.Clock, d.Log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	api.Post("/Login", limiter.New(limiter.Config{
		Max:        LoginLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many login attempts, try again in a minute"})
		},
	}), authController.Login)
	api.Post("/Logout", authController.Logout)
	api.Get("/User", auth.Verify(Models.RoleUser), authController.User)
	api.Get("/options", auth.Verify(Models.RoleUser), Controllers.Options(d.Config.Branches, d.Config.TaskTypes))

	// Task routes
	taskRoutes := api.Group("/tasks", auth.Verify(Models.RoleUser))
	taskRoutes.Get("/", taskController.GetTasks)
	taskRoutes.Post("/", taskController.StartTask)
	// Place assign BEFORE the ID routes
	taskRoutes.Post("/assign", auth.Verify(Models.RoleAdmin), taskController.AssignTask)
	taskRoutes.Patch("/:id/counts", taskController.UpdateCounts)
	taskRoutes.Post("/:id/complete", taskController.CompleteTask)
	taskRoutes.Delete("/:id", auth.Verify(Models.RoleAdmin), taskController.DeleteTask)

	// User management
	userRoutes := api.Group("/users", auth.Verify(Models.RoleAdmin))
	userRoutes.Get("/", userController.FetchUsers)
	userRoutes.Post("/", userController.RegisterUser)

	// Reports
	reportRoutes := api.Group("/reports", auth.Verify(Models.RoleUser))
	reportRoutes.Get("/me", reportController.Me)
	reportRoutes.Get("/summary", auth.Verify(Models.RoleAdmin), reportController.Summary)
	reportRoutes.Get("/daily", auth.Verify(Models.RoleAdmin), reportController.Daily)
	reportRoutes.Get("/journal-dates", auth.Verify(Models.RoleAdmin), reportController.JournalDates)

	// Exports
	exportRoutes := api.Group("/export", auth.Verify(Models.RoleAdmin))
	exportRoutes.Get("/tasks.csv", exportController.CSV)
	exportRoutes.Get("/tasks.xlsx", exportController.XLSX)

	// Request logs
	logRoutes := api.Group("/logs", auth.Verify(Models.RoleAdmin))
	logRoutes.Get("/", logController.GetLogs)
	logRoutes.Get("/stats", logController.GetLogStats)

	return nil
}

// NewApp builds the Fiber app with its middleware stack and routes.
func NewApp(d Deps) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               "AuditDesk",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(d.Log),
	})
	app.Use(recover.New())
	logCfg := middleware.DefaultLogConfig()
	logCfg.File = d.Config.RequestLogPath
	app.Use(middleware.RequestLogger(logCfg, d.Log))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if err := SetupRoutes(app, d); err != nil {
		return nil, err
	}
	return app, nil
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(code).JSON(fiber.Map{"error": "Internal server error"})
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
