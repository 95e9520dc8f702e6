package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/simiao2025/IBUC-System-v2-sub005/apps/api/echo"
	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/curriculum"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/report"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/waitlist"
	appfs "github.com/simiao2025/IBUC-System-v2-sub005/fs"
	emailsvc "github.com/simiao2025/IBUC-System-v2-sub005/services/email"
	logsvc "github.com/simiao2025/IBUC-System-v2-sub005/services/logger"
	metricsvc "github.com/simiao2025/IBUC-System-v2-sub005/services/metrics"
	"github.com/simiao2025/IBUC-System-v2-sub005/storage/database"
	boiledrepos "github.com/simiao2025/IBUC-System-v2-sub005/storage/database/sqlboiler"
	sqlxrepos "github.com/simiao2025/IBUC-System-v2-sub005/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	out := logsvc.NewLogrus(conf)
	logger := logsvc.NewRollbarLogger(out, conf, "api")
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	dbLogger := logsvc.NewRollbarLogger(out, conf, "db")

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("failed to close", err)
		}
	}()

	// set up repositories
	tx := database.NewTransactor(db)
	usrRepo := boiledrepos.NewUserRepository(db)
	schoolRepo := sqlxrepos.NewSchoolRepository(db)
	studentRepo := sqlxrepos.NewStudentRepository(db)
	enrollRepo := sqlxrepos.NewEnrollmentRepository(db)
	billingRepo := sqlxrepos.NewBillingRepository(db)
	auditRepo := sqlxrepos.NewAuditRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	metrics := metricsvc.NewCollector(conf.Build)

	validate, translator := newValidator()
	core.ParseEmailTemplates(appfs.FS, conf, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus scrape endpoint.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", metrics.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			Metrics:    metrics,

			UserSvc:       user.NewService(usrRepo, validate),
			SchoolSvc:     school.NewService(schoolRepo, validate),
			StudentSvc:    student.NewService(studentRepo, schoolRepo, auditRepo, tx, validate),
			EnrollmentSvc: enrollment.NewService(enrollRepo, schoolRepo, studentRepo, auditRepo, tx, validate),
			BillingSvc: billing.NewService(billing.Deps{
				Repo:        billingRepo,
				Turmas:      schoolRepo,
				Enrollments: enrollRepo,
				Students:    studentRepo,
				Audit:       auditRepo,
				Tx:          tx,
				Validate:    validate,
				MailSvc:     mailSvc,
				Logger:      logger,
				Metrics:     metrics,
			}),
			CurriculumSvc: curriculum.NewService(sqlxrepos.NewCurriculumRepository(db), tx, validate),
			WaitlistSvc:   waitlist.NewService(sqlxrepos.NewWaitlistRepository(db), schoolRepo, mailSvc, logger, validate),
			ReportSvc:     report.NewService(boiledrepos.NewReportRepository(db), validate),
			AuditRepo:     auditRepo,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}

		// emails queued by the last requests
		mailSvc.Wait()
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newValidator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	enrollment.InitValidators(validate, translator)
	return validate, translator
}
