package service

import (
	"net"

	"github.com/tideline-io/metricsink/service/http"
	"github.com/tideline-io/metricsink/sink"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

func Init(addr string, registry *sink.Registry) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("failed to listen",
			zap.String("address", addr),
			zap.Error(err),
		)
	}

	go http.ServeHTTP(listener, registry)

	log.Info(
		"starting http service",
		zap.String("address", addr),
	)
}

func Stop() {
	http.StopHTTP()
}
