package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Modeva-Ecommerce/modeva-webshop/config"
)

const (
	RequestIDKey = "X-Request-ID"
	contextKey   = "logger"
)

var log *zap.Logger

// InitLogger initializes the global logger
func InitLogger(cfg *config.Config) {
	var logConfig zap.Config
	if cfg.IsProduction() {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(level)

	var err error
	log, err = logConfig.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log.Info("Logger initialized", zap.String("level", level.String()))
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if log == nil {
		var err error
		log, err = zap.NewProduction()
		if err != nil {
			panic("Failed to create fallback logger: " + err.Error())
		}
	}
	return log
}

// FromContext returns the request logger, or the global one outside a request.
func FromContext(c *gin.Context) *zap.Logger {
	if c != nil {
		if l, ok := c.Get(contextKey); ok {
			if zl, ok := l.(*zap.Logger); ok {
				return zl
			}
		}
		if id := c.GetString("request_id"); id != "" {
			return GetLogger().With(zap.String("request_id", id))
		}
	}
	return GetLogger()
}

// Attach stores a request-scoped logger on the gin context.
func Attach(c *gin.Context, l *zap.Logger) {
	c.Set(contextKey, l)
}

// Middleware logs every request once it has been handled.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zapcore.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		l := FromContext(c)
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			l.Error("HTTP request failed", fields...)
			return
		}
		l.Info("HTTP request completed", fields...)
	}
}
