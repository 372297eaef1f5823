package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apperrors "payment-gateway/common/errors"
	"payment-gateway/common/logger"
	"payment-gateway/common/middleware"
	"payment-gateway/config"
	"payment-gateway/controllers"
	aws_pkg "payment-gateway/pkg/aws"
	"payment-gateway/routes"
	servicepkg "payment-gateway/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "payment-gateway"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// AWS clients
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	if cfg.AWSUseSecrets {
		if awsErr != nil {
			log.Fatalf("AWS_USE_SECRETS is set but AWS config is unavailable: %v", awsErr)
		}
		if err := cfg.ApplySecrets(ctx, aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	var logSink io.Writer
	var cwLogs *aws_pkg.CloudWatchLogsClient
	if cfg.CloudWatchEnabled && awsErr == nil {
		cwLogs, err = aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Printf("CloudWatch Logs unavailable, logging to stdout only: %v", err)
		} else {
			logSink = cwLogs
		}
	}
	zapLogger := logger.InitializeWithWriter(cfg.Env, logSink)
	defer zapLogger.Sync() //nolint:errcheck

	var snsClient aws_pkg.SNSPublisher
	var metrics aws_pkg.MetricsRecorder
	if awsErr != nil {
		zapLogger.Warn("AWS config unavailable, SNS and metrics disabled", zap.Error(awsErr))
	} else {
		snsClient = aws_pkg.NewSNSClient(awsCfg)
		metrics = aws_pkg.NewMetricsClient(awsCfg, cfg.CloudWatchNS, cfg.CloudWatchEnabled)
	}

	// Processor, backend and DI chain
	stripeService := servicepkg.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookKey, cfg.StripeAPIVersion, nil)
	backend := servicepkg.NewBackendClient(servicepkg.BackendClientConfig{
		BaseURL:     cfg.IdentityServiceURL,
		ProfilePath: cfg.IdentityProfilePath,
		StatusPath:  cfg.BackendPaymentStatusPath,
		Timeout:     cfg.IdentityTimeout,
	}, zapLogger)

	customers := servicepkg.NewCustomerResolver(stripeService, metrics, zapLogger)
	checkout := servicepkg.NewIntentService(backend, customers, stripeService, metrics, zapLogger)
	legacy := servicepkg.NewLegacyService(stripeService, zapLogger)
	webhooks := servicepkg.NewWebhookService(stripeService, snsClient, cfg.PaymentSNSTopicARN, backend, metrics, zapLogger)
	paymentController := controllers.NewPaymentController(checkout, legacy, webhooks, zapLogger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	limiter := middleware.NewRateLimiter(ctx, rate.Limit(float64(cfg.RateLimitPerMinute)/60), cfg.RateLimitBurst, 10*time.Minute)

	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(zapLogger),
		// Metrics wraps ErrorMiddleware so it reads the status ErrorMiddleware writes.
		middleware.MetricsMiddleware(metrics, serviceName),
		apperrors.ErrorMiddleware(),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(limiter, "/webhook", "/health"),
		middleware.Timeout(cfg.RequestTimeout),
	)

	routes.RegisterPaymentRoutes(r, paymentController)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Payment gateway started",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.Bool("sns_enabled", snsClient != nil && cfg.PaymentSNSTopicARN != ""),
	)
	<-quit
	zapLogger.Info("Shutting down payment gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited cleanly")
	if cwLogs != nil {
		_ = zapLogger.Sync()
		_ = cwLogs.Close()
	}
}
