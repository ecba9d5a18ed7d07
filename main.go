package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tideline-io/metricsink/config"
	"github.com/tideline-io/metricsink/rate"
	"github.com/tideline-io/metricsink/service"
	"github.com/tideline-io/metricsink/sink"
	"github.com/tideline-io/metricsink/store"
	"github.com/tideline-io/metricsink/store/model"
	"github.com/tideline-io/metricsink/table"
	"github.com/tideline-io/metricsink/utils/printer"
)

const (
	nmAddr           = "address"
	nmConfigFilePath = "config.file"
)

// flags
var (
	cfgFilePath = flag.String(nmConfigFilePath, "./metricsink.yml", "YAML config file path for metricsink.")
	listenAddr  = flag.String(nmAddr, "", "TCP address to listen for http connections")
)

func initLogger(cfg *config.MetricSinkConfig) {
	logger, props, err := log.InitLogger(&log.Config{
		Level: cfg.LogConfig.LogLevel,
		File:  log.FileLogConfig{Filename: cfg.LogConfig.LogFile},
	})
	if err != nil {
		log.Fatal("failed to init logger", zap.Error(err))
	}
	log.ReplaceGlobals(logger, props)
}

// bootstrapSchema creates the identifier and data tables if they do not
// exist. Failure is not fatal: the target itself connects lazily on the
// first write, and the schema may already be in place.
func bootstrapSchema(dbc config.DatabaseConfig) {
	db, err := sql.Open("mysql", dbc.DSN())
	if err != nil {
		log.Warn("failed to open db for schema bootstrap", zap.String("target", dbc.TargetName()), zap.Error(err))
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close db", zap.Error(err))
		}
	}()

	for _, stmt := range []string{table.CreateIdentifier, table.CreateData} {
		if _, err := db.Exec(stmt); err != nil {
			log.Warn("failed to create table",
				zap.String("target", dbc.TargetName()), zap.String("statement", stmt), zap.Error(err))
			return
		}
	}
}

func initTargets(cfg *config.MetricSinkConfig, registry *sink.Registry, converter *rate.Converter) []*store.Store {
	stores := make([]*store.Store, 0, len(cfg.Databases))
	for _, dbc := range cfg.Databases {
		bootstrapSchema(dbc)

		st := store.New(store.Options{
			Name:   dbc.TargetName(),
			Driver: "mysql",
			DSN:    dbc.DSN(),
		})
		stores = append(stores, st)

		err := registry.Register(st.Name(), func(ctx context.Context, ds []model.DataSource, vl *model.ValueList) error {
			rates, err := converter.Rates(ds, vl)
			if err != nil {
				return err
			}
			return st.Write(ctx, ds, vl, rates)
		})
		if err != nil {
			log.Fatal("failed to register write callback", zap.String("name", st.Name()), zap.Error(err))
		}
	}
	return stores
}

func closeTargets(stores []*store.Store) {
	for _, st := range stores {
		st.Close()
	}
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgFilePath)
	if err != nil {
		log.Fatal("failed to load config file", zap.String("config.file", *cfgFilePath), zap.Error(err))
	}
	initLogger(cfg)

	printer.PrintMetricSinkInfo()

	registry := sink.NewRegistry()
	converter := rate.NewConverter(cfg.Rate.CacheSize)

	stores := initTargets(cfg, registry, converter)
	defer closeTargets(stores)
	log.Info("targets ready", zap.Strings("targets", registry.Names()))

	addr := cfg.WebConfig.Address
	if len(*listenAddr) > 0 {
		addr = *listenAddr
	}
	service.Init(addr, registry)
	defer service.Stop()

	sig := WaitForSigterm()
	log.Info("received signal", zap.String("sig", sig.String()))
}

func WaitForSigterm() os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for {
		sig := <-ch
		if sig == syscall.SIGHUP {
			// Prevent from the program stop on SIGHUP
			continue
		}
		return sig
	}
}
