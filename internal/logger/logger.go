package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	httpmw "github.com/wolfeidau/formulary/internal/http"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// HTTPRequests logs every request and attaches a request scoped logger to
// the context so handlers can log with zerolog.Ctx.
func HTTPRequests(logger zerolog.Logger) httpmw.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()

			reqLogger := logger.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("addr", httpmw.ExtractClientIP(r)).
				Logger()

			rec := httpmw.NewStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(reqLogger.WithContext(r.Context())))

			var event *zerolog.Event
			switch {
			case rec.Status >= http.StatusInternalServerError:
				event = reqLogger.Error()
			case rec.Status >= http.StatusBadRequest:
				event = reqLogger.Warn()
			default:
				event = reqLogger.Info()
			}

			event.
				Int("status", rec.Status).
				Int("bytes", rec.Bytes).
				Dur("duration", time.Since(started)).
				Msg("http request")
		})
	}
}
