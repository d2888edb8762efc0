package events

import (
	"net/http"

	"go.uber.org/zap"
)

// Logger is an observer which records request outcomes.
type Logger struct {
	log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log}
}

func (l *Logger) WillSendRequest(req *http.Request) error {
	l.log.Debug("request", zap.String("method", req.Method), zap.Stringer("url", req.URL))
	return nil
}

func (l *Logger) DidReceiveResponse(req *http.Request, rsp *http.Response) error {
	l.log.Info("response",
		zap.String("method", req.Method),
		zap.Stringer("url", req.URL),
		zap.Int("status", rsp.StatusCode),
		zap.Int64("length", rsp.ContentLength),
	)
	return nil
}

func (l *Logger) RequestFailedWithError(req *http.Request, rsp *http.Response, err error) error {
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.Stringer("url", req.URL),
		zap.Error(err),
	}
	if rsp != nil {
		fields = append(fields, zap.Int("status", rsp.StatusCode))
	}
	l.log.Warn("request failed", fields...)
	return nil
}
