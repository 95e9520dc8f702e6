package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/curriculum"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/report"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/waitlist"
	metricsvc "github.com/simiao2025/IBUC-System-v2-sub005/services/metrics"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		Metrics        *metricsvc.Collector // optional
		DisableReqLogs bool

		UserSvc       *user.Service
		SchoolSvc     *school.Service
		StudentSvc    *student.Service
		EnrollmentSvc *enrollment.Service
		BillingSvc    *billing.Service
		CurriculumSvc *curriculum.Service
		WaitlistSvc   *waitlist.Service
		ReportSvc     *report.Service
		AuditRepo     audit.Repository
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())
	if s.deps.Metrics != nil {
		s.app.Use(s.deps.Metrics.Middleware())
	}

	s.app.GET("/", home)

	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(s.app, jwt, s.deps.UserSvc, conf, s.deps.Validate)
	registerSchoolAPI(s.app, jwt, s.deps.SchoolSvc)
	registerStudentAPI(s.app, jwt, s.deps.StudentSvc)
	registerEnrollmentAPI(s.app, jwt, s.deps.EnrollmentSvc)
	registerBillingAPI(s.app, jwt, s.deps.BillingSvc)
	registerCurriculumAPI(s.app, jwt, s.deps.CurriculumSvc)
	registerWaitlistAPI(s.app, jwt, s.deps.WaitlistSvc)
	registerReportAPI(s.app, jwt, s.deps.ReportSvc)
	registerAuditAPI(s.app, jwt, s.deps.AuditRepo)
}

// Start listens on the configured address; failures are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": "IBUC API"})
}
