package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/sirupsen/logrus"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
)

// RollbarLogger reports to Rollbar and prints every message through logrus.
type RollbarLogger struct {
	out *logrus.Entry
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewLogrus(conf *core.Config) *logrus.Logger {
	l := logrus.New()
	if conf.Debug {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

func NewRollbarLogger(out *logrus.Logger, conf *core.Config, component string) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{out: out.WithField("component", component)}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// split sorts args into rollbar arguments and logrus fields.
// expected args: error, map[string]interface{}, user.User
func (l *RollbarLogger) split(msg string, args []interface{}) ([]interface{}, *logrus.Entry) {
	var usrSet bool
	rbArgs := []interface{}{msg}
	entry := l.out
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if !usrSet {
				rollbar.SetPerson(a.ID, a.Nome, a.Email)
				entry = entry.WithField("user_id", a.ID)
				usrSet = true
			}
		case error:
			rbArgs = append(rbArgs, a)
			entry = entry.WithError(a)
		case map[string]interface{}:
			rbArgs = append(rbArgs, a)
			entry = entry.WithFields(a)
		default:
			rbArgs = append(rbArgs, a)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return rbArgs, entry
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, entry := l.split(msg, args)
	rollbar.Debug(rbArgs...)
	entry.Debug(msg)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, entry := l.split(msg, args)
	rollbar.Info(rbArgs...)
	entry.Info(msg)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, entry := l.split(msg, args)
	rollbar.Warning(rbArgs...)
	entry.Warn(msg)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, entry := l.split(msg, args)
	rollbar.Error(rbArgs...)
	entry.Error(msg)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, entry := l.split(msg, args)
	rollbar.Critical(rbArgs...)
	rollbar.Wait()
	entry.Fatal(msg)
}
