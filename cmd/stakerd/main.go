// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/api"
	"github.com/vechain/stakeledger/api/admin/health"
	"github.com/vechain/stakeledger/cmd/stakerd/httpserver"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/state"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "stakerd")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Stakerd",
		Usage:     "Tiered staking ledger",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			devFlag,
			configFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsLimitFlag,
			apiBacklogFlag,
			apiRateLimitFlag,
			apiRateLimitBurstFlag,
			apiTrustProxyFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			cacheFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			skipNTPFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, clock := selectGenesis(ctx)

	var (
		mainDB      *lvldb.LevelDB
		logDB       *logdb.LogDB
		instanceDir string
		cacheMB     = normalizeCacheSize(ctx.Int(cacheFlag.Name))
	)
	if ctx.Bool(devFlag.Name) {
		instanceDir = "Memory"
		mainDB = openMemMainDB()
		logDB = openMemLogDB()
	} else {
		instanceDir = makeInstanceDir(ctx, gene)
		mainDB = openMainDB(instanceDir, cacheMB)
		logDB = openLogDB(instanceDir)
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	store := state.NewStore(mainDB, cacheMB/2)
	applied, err := gene.Apply(store)
	if err != nil {
		fatal("apply genesis:", err)
	}
	if applied {
		logger.Info("genesis applied", "id", gene.ID(), "name", gene.Name())
	}

	rt := runtime.New(store, clock, runtime.Options{Sinks: []runtime.EventSink{logDB}})
	defer rt.Close()

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	apiHandler, apiClose := api.New(rt, logDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		GenesisID:            gene.ID(),
		Version:              fullVersion(),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
		BacklogSize:          ctx.Int(apiBacklogFlag.Name),
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		RateLimit:            ctx.Int(apiRateLimitFlag.Name),
		RateLimitBurst:       ctx.Int(apiRateLimitBurstFlag.Name),
		TrustProxy:           ctx.Bool(apiTrustProxyFlag.Name),
	})
	defer func() { logger.Info("stopping API server..."); apiClose() }()

	apiURL, srvCloser, err := httpserver.StartAPIServer(ctx.String(apiAddrFlag.Name), apiHandler)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing API server..."); srvCloser() }()

	adminURL := ""
	if ctx.Bool(enableAdminFlag.Name) {
		h := health.New(store, rt, gene.ID())
		defer h.Close()

		url, closeFunc, err := httpserver.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, h, apiLogs)
		if err != nil {
			return fmt.Errorf("unable to start admin server - %w", err)
		}
		adminURL = url
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
	}

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		if err := metrics.RegisterSnapshot("ledger", rt.Snapshot); err != nil {
			return fmt.Errorf("unable to register ledger metrics - %w", err)
		}
		url, closeFunc, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return fmt.Errorf("unable to start metrics server - %w", err)
		}
		metricsURL = url
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
	}

	printStartupMessage(gene, ctx.Bool(devFlag.Name), instanceDir, apiURL, adminURL, metricsURL)

	exitCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(exitCtx)
	if !ctx.Bool(skipNTPFlag.Name) {
		g.Go(func() error {
			checkClockOffset(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("exit signal received")
		return nil
	})
	return g.Wait()
}
