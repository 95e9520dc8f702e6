package main

import (
	"fmt"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/waitlist"
	appfs "github.com/simiao2025/IBUC-System-v2-sub005/fs"
	emailsvc "github.com/simiao2025/IBUC-System-v2-sub005/services/email"
	logsvc "github.com/simiao2025/IBUC-System-v2-sub005/services/logger"
	"github.com/simiao2025/IBUC-System-v2-sub005/storage/database"
	boiledrepos "github.com/simiao2025/IBUC-System-v2-sub005/storage/database/sqlboiler"
	sqlxrepos "github.com/simiao2025/IBUC-System-v2-sub005/storage/database/sqlx"
)

var logger *logrus.Entry

func main() {
	conf := core.NewConfig()

	out := logsvc.NewLogrus(conf)
	logger = out.WithField("component", "admin")
	appLogger := logsvc.NewRollbarLogger(out, conf, "admin")

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.WithError(err).Fatal("creating database")
	}
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	// set up services
	validate, translator := newValidator()
	core.ParseEmailTemplates(appfs.FS, conf, appLogger)

	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, appLogger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	}
	schoolRepo := sqlxrepos.NewSchoolRepository(db)

	// start CLI
	cli := commandLine{
		db:         db.DB,
		usrSvc:     user.NewService(boiledrepos.NewUserRepository(db), validate),
		schoolSvc:  school.NewService(schoolRepo, validate),
		waitSvc:    waitlist.NewService(sqlxrepos.NewWaitlistRepository(db), schoolRepo, mailSvc, appLogger, validate),
		translator: translator,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	mailSvc.Wait()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", cli.describe(err))
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func newValidator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	enrollment.InitValidators(validate, translator)
	return validate, translator
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
