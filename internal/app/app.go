package app

import (
	"io"
	"os"

	runtime "github.com/banzaicloud/logrus-runtime-formatter"
	"github.com/bombsimon/logrusr/v2"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

// App holds attributes for the xpuctl application
type App struct {
	// v is the viper instance the configuration is loaded with.
	v *viper.Viper
	// xpuctl configuration.
	Config *model.Config
	// Logger is the app logger
	Logger *logrus.Logger
}

// New returns a new instance of the xpuctl app with its configuration loaded from cfgFile.
//
// The credentials of BMCs not defining them are merged from the global credentials before New returns.
func New(cfgFile string, loglevel int) (*App, error) {
	app := &App{
		v:      viper.New(),
		Config: &model.Config{File: cfgFile, LogLevel: loglevel},
		Logger: NewLogger(loglevel, os.Stderr),
	}

	if err := app.LoadConfiguration(cfgFile); err != nil {
		return nil, err
	}

	app.Config.Finalize()

	if err := app.Config.Validate(); err != nil {
		return nil, err
	}

	return app, nil
}

// NewLogger returns the logger for the given log level,
// the otel global logger is set to log through it.
func NewLogger(loglevel int, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.Out = out

	// set log level, format
	switch loglevel {
	case model.LogLevelDebug:
		logger.Level = logrus.DebugLevel
	case model.LogLevelTrace:
		logger.Level = logrus.TraceLevel
	default:
		logger.Level = logrus.InfoLevel
	}

	logger.SetFormatter(
		&runtime.Formatter{ChildFormatter: &logrus.JSONFormatter{}},
	)

	otel.SetLogger(logrusr.New(logger))

	return logger
}
