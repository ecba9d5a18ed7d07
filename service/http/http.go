package http

import (
	"net"
	"net/http"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tideline-io/metricsink/remote"
	"github.com/tideline-io/metricsink/sink"
)

var (
	httpServer *http.Server = nil
)

func ServeHTTP(listener net.Listener, registry *sink.Registry) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collectd", remote.CollectdHandler(registry))
	mux.HandleFunc("/write", remote.PromWriteHandler(registry))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	httpServer = &http.Server{Handler: mux}
	if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		log.Warn("failed to serve http service", zap.Error(err))
	}
}

func StopHTTP() {
	if httpServer == nil {
		return
	}

	log.Info("shutting down http server")
	if err := httpServer.Close(); err != nil {
		log.Warn("failed to close http server", zap.Error(err))
	}
	httpServer = nil
	log.Info("http server is down")
}
