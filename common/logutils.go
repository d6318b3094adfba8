package common

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// InitLogger configures the logrus standard logger used across the service.
func InitLogger(level, format string) error {
	logger := logrus.StandardLogger()
	logger.Out = os.Stdout

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, LogFormatJSON) {
		logger.Formatter = &logrus.JSONFormatter{}
	} else {
		logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}

	logger.ReplaceHooks(logrus.LevelHooks{})
	logger.AddHook(&DefaultFieldsHook{})
	return nil
}

type DefaultFieldsHook struct {
}

func (hook *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *DefaultFieldsHook) Fire(e *logrus.Entry) error {
	e.Data["serviceName"] = GetServiceName()
	e.Data["serviceInstance"] = GetServiceInstance()
	return nil
}
