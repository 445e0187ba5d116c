package httpapp

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"photovault/internal/config"
	custommw "photovault/internal/middleware"
	httprouters "photovault/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type TemplateRenderer struct {
	templates *template.Template
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	host    string
	port    string
}

func New(log *slog.Logger, cfg *config.Config, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = routers.ErrorHandler

	e.Validator = &CustomValidator{validator: validator.New()}

	funcs := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
	e.Renderer = &TemplateRenderer{
		templates: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
	}

	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%d", cfg.FileStorage.MaxSize)))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("request_id", uuid.NewString()),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
			)

			return nil
		},
	}))

	e.Use(custommw.PrometheusMetrics)

	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		log.Warn("statsviz registration failed", slog.String("error", err.Error()))
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		host:    cfg.HTTP.Host,
		port:    cfg.HTTP.Port,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("start", "server"))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf("%s:%s", s.host, s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", op, "http server")

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) BuildRouters() {
	s.e.GET("/", s.routers.Index)
	s.e.GET("/about", s.routers.About)
	s.e.GET("/login", s.routers.LoginForm)
	s.e.POST("/login", s.routers.Login)
	s.e.GET("/register", s.routers.RegisterForm)
	s.e.POST("/register", s.routers.Register)
	s.e.GET("/logout", s.routers.Logout)

	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	debug := s.e.Group("/debug")
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	auth := s.e.Group("", s.routers.RequireAuth)
	{
		auth.GET("/dashboard", s.routers.Dashboard)
		auth.GET("/originals", s.routers.Originals)
		auth.GET("/photo/:id", s.routers.ViewPhoto)
		auth.GET("/editor/:id", s.routers.Editor)
		auth.POST("/rename/:id", s.routers.RenamePhoto)
		auth.GET("/upload", s.routers.UploadForm)
		auth.POST("/upload", s.routers.Upload)
		auth.GET("/people", s.routers.People)
		auth.POST("/add_person", s.routers.AddPerson)
		auth.GET("/edit_person/:id", s.routers.EditPersonForm)
		auth.POST("/edit_person/:id", s.routers.EditPerson)
		auth.POST("/tag_person/:photo_id", s.routers.TagPerson)
		auth.POST("/untag_person/:photo_id/:person_id", s.routers.UntagPerson)
		auth.GET("/profile", s.routers.Profile)
		auth.GET("/uploads/:filename", s.routers.ServeUpload)
		auth.GET("/uploads/thumbnails/:filename", s.routers.ServeThumbnail)
	}

	admin := s.e.Group("/admin", s.routers.RequireAuth, s.routers.AdminOnly)
	{
		admin.GET("/users", s.routers.AdminUsers)
	}
}
