package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"marktplatz/internal/config"
	"marktplatz/internal/dashboard"
	"marktplatz/internal/domain"
	"marktplatz/internal/http/handlers"
	applog "marktplatz/internal/log"
	"marktplatz/internal/photos"
	"marktplatz/internal/records"
	"marktplatz/internal/repos"
	"marktplatz/internal/services"
	"marktplatz/internal/vision"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := repos.SeedAdmin(db, uuid.NewString(), cfg.AdminEmail, "Admin", cfg.AdminPassword); err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	_, _ = authSvc.ExpireSessions()
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Backend wiring
	backendHTTP, err := backendClient(cfg)
	if err != nil {
		log.Fatal(err)
	}
	client := records.NewClient(cfg.BackendURL, backendHTTP)
	offerRepo := repos.NewOfferRepo(client, domain.AppOffers, domain.AppCategories)
	catRepo := repos.NewCategoryRepo(client, domain.AppCategories)
	ctl := dashboard.NewController(offerRepo, catRepo)
	go func() {
		_ = ctl.Load(context.Background())
	}()

	analyzer := vision.NewAnalyzer(nil, vision.Config{
		URL:       cfg.VisionURL,
		APIKey:    cfg.VisionAPIKey,
		Model:     cfg.VisionModel,
		MaxTokens: cfg.VisionMaxTokens,
		Timeout:   cfg.VisionTimeout,
	})

	var store photos.Store
	if cfg.S3Bucket != "" {
		s3Store, err := photos.NewS3Store(photos.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			applog.Warn(nil, "photos.disabled", err, map[string]any{"bucket": cfg.S3Bucket})
		} else {
			store = s3Store
		}
	}

	// Templates & app
	engine := handlers.NewViews("./web/templates")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:     engine,
		BodyLimit: cfg.MaxUploadBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			// Log and show a friendly message
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(code).Render("notfound", fiber.Map{
				"Message": "Etwas ist schiefgelaufen. Bitte versuche es erneut.",
			}); rerr != nil {
				return c.Status(code).SendString("Etwas ist schiefgelaufen. Bitte versuche es erneut.")
			}
			return nil
		},
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("start", time.Now())
		return c.Next()
	})
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(string(c.Request().URI().Path()), "/healthz")
		},
	}))
	app.Use(handlers.CSRF())
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(cfg, ctl, analyzer, store)
	admin := handlers.RequireAdmin(authSvc)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Zu viele Versuche. Bitte später erneut versuchen."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Dashboard
	app.Get("/", admin, deps.DashboardHandler.Home)
	app.Post("/retry", admin, deps.DashboardHandler.Retry)

	// Offers
	analyzeLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.analyze.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	app.Get("/offers/new", admin, deps.OfferHandler.New)
	app.Post("/offers/analyze", admin, analyzeLimiter, deps.OfferHandler.Analyze)
	app.Post("/offers", admin, deps.OfferHandler.Create)
	app.Get("/offers/:id", admin, deps.OfferHandler.Detail)
	app.Get("/offers/:id/edit", admin, deps.OfferHandler.Edit)
	app.Post("/offers/:id", admin, deps.OfferHandler.Update)
	app.Post("/offers/:id/delete", admin, deps.OfferHandler.Delete)

	// Categories
	app.Get("/categories/new", admin, deps.CategoryHandler.New)
	app.Post("/categories", admin, deps.CategoryHandler.Create)
	app.Get("/categories/:id/edit", admin, deps.CategoryHandler.Edit)
	app.Post("/categories/:id", admin, deps.CategoryHandler.Update)
	app.Post("/categories/:id/delete", admin, deps.CategoryHandler.Delete)

	// API
	api := app.Group("/api/v1", admin)
	api.Get("/dashboard", deps.APIHandler.Dashboard)
	api.Get("/offers/:id", deps.APIHandler.Offer)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		st, _ := ctl.Status()
		return c.JSON(fiber.Map{"ok": true, "backend": st})
	})
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Seite nicht gefunden"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}

// backendClient carries the backend session cookie on every request.
func backendClient(cfg config.Config) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if cfg.BackendSession != "" {
		u, err := url.Parse(cfg.BackendURL)
		if err != nil {
			return nil, err
		}
		jar.SetCookies(u, []*http.Cookie{{Name: cfg.BackendSessionCookie, Value: cfg.BackendSession, Path: "/"}})
	} else {
		applog.Warn(nil, "backend.anonymous", nil, map[string]any{"url": cfg.BackendURL})
	}
	return &http.Client{Jar: jar, Timeout: cfg.BackendTimeout}, nil
}
