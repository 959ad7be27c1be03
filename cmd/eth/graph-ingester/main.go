package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/goodnatureofminers/blockgraph/internal/eth/ethereum"
	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
	neo4jrepo "github.com/goodnatureofminers/blockgraph/internal/eth/repository/neo4j"
	"github.com/goodnatureofminers/blockgraph/internal/eth/service/ingester"
	"github.com/goodnatureofminers/blockgraph/internal/metrics"
	"github.com/goodnatureofminers/blockgraph/internal/transport"
	grpcZap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	"github.com/jessevdk/go-flags"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthService   = "blockgraph.GraphIngester"
	shutdownTimeout = 5 * time.Second
)

type config struct {
	RPCURL        string `long:"rpc-url" env:"ETH_GRAPH_RPC_URL" description:"Ethereum JSON-RPC URL" default:"http://127.0.0.1:8545"`
	RPS           int    `long:"rps" env:"ETH_GRAPH_RPS" description:"max RPC requests per second, 0 disables the limit" default:"0"`
	Network       string `long:"network" env:"ETH_GRAPH_NETWORK" description:"network name used as metrics label" default:"mainnet"`
	Neo4jURI      string `long:"neo4j-uri" env:"ETH_GRAPH_NEO4J_URI" description:"Neo4j bolt URI" default:"neo4j://localhost:7687"`
	Neo4jUser     string `long:"neo4j-user" env:"ETH_GRAPH_NEO4J_USER" description:"Neo4j username" default:"neo4j"`
	Neo4jPassword string `long:"neo4j-password" env:"ETH_GRAPH_NEO4J_PASSWORD" description:"Neo4j password"`
	Neo4jDatabase string `long:"neo4j-database" env:"ETH_GRAPH_NEO4J_DATABASE" description:"Neo4j database, empty selects the server default"`
	StartHeight   uint64 `long:"start-height" env:"ETH_GRAPH_START_HEIGHT" description:"first block the graph holds" default:"46147"`
	GRPCAddr      string `long:"grpc-addr" env:"ETH_GRAPH_GRPC_ADDR" description:"address for the gRPC health server" default:":8000"`
	HTTPAddr      string `long:"http-addr" env:"ETH_GRAPH_HTTP_ADDR" description:"address for /healthz and /metrics" default:":2112"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()
	grpcZap.ReplaceGrpcLoggerV2(logger)

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if cfg.RPCURL == "" {
		logger.Fatal("RPC URL is required")
	}
	if cfg.Neo4jURI == "" {
		logger.Fatal("Neo4j URI is required")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("eth graph ingester failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	health := transport.NewHealthHandler(healthService)
	if err := startServers(ctx, cfg, health, logger); err != nil {
		return err
	}

	ec, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("dial ethereum rpc: %w", err)
	}
	defer ec.Close()
	chainID, err := ec.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	ledger, err := ethereum.NewClient(ec, ec.Client(), newLimiter(cfg.RPS), metrics.NewRPCClient(cfg.Network))
	if err != nil {
		return fmt.Errorf("init ethereum client: %w", err)
	}

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return fmt.Errorf("init neo4j driver: %w", err)
	}
	defer func() {
		if err := driver.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Error("failed to close neo4j driver", zap.Error(err))
		}
	}()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	repo, err := neo4jrepo.NewRepository(driver, cfg.Neo4jDatabase, metrics.NewGraphRepository(cfg.Neo4jDatabase))
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}

	importerMetrics := metrics.NewBlockImporter(cfg.Network)
	importer, err := ingester.NewBlockImporterService(repo, ledger, importerMetrics, cfg.StartHeight, logger.Named("importer"))
	if err != nil {
		return err
	}
	defer importer.Wait()

	follower, err := ingester.NewFollowerIngesterService(importer, ledger, importerMetrics, health, logger.Named("follower"))
	if err != nil {
		return err
	}

	logger.Info("starting eth graph ingester",
		zap.String("network", cfg.Network),
		zap.String("chain_id", chainID.String()),
		zap.Uint64("start_height", cfg.StartHeight),
	)
	err = follower.Run(ctx)
	if model.IsFatal(err) {
		logger.Error("import halted, reporting NOT_SERVING until shutdown", zap.Error(err))
		<-ctx.Done()
		return err
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func newLimiter(rps int) ratelimit.Limiter {
	if rps <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(rps)
}

// startServers exposes gRPC health on GRPCAddr and the HTTP gateway with /healthz and /metrics on HTTPAddr.
func startServers(ctx context.Context, cfg config, health *transport.HealthHandler, logger *zap.Logger) error {
	grpcServer := transport.NewGRPCServer(logger.Named("grpc"))
	health.Register(grpcServer)

	socket, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}
	go func() {
		logger.Info("starting gRPC server", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(socket); err != nil {
			logger.Error("gRPC server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down gRPC server")
		health.Shutdown()
		grpcServer.GracefulStop()
	}()

	conn, err := grpc.NewClient(socket.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial health service: %w", err)
	}
	srv := transport.NewHTTPServer(cfg.HTTPAddr, transport.NewHTTPHandler(grpc_health_v1.NewHealthClient(conn)))
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
	go func() {
		defer func() {
			_ = conn.Close()
		}()
		if err := transport.ShutdownHTTP(ctx, srv, shutdownTimeout); err != nil {
			logger.Error("failed to shutdown HTTP server", zap.Error(err))
		}
	}()
	return nil
}
