package main

import (
	"context"
	"log"
	"time"

	"mnemo-backend/infrastructure/config"
	"mnemo-backend/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

// init runs once per execution environment, during cold start.
func init() {
	coldStartTime = time.Now()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	cfg.IsLambda = true

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	handler := container.Router.Setup()
	mux, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("router did not produce a chi.Mux")
	}
	chiLambda = chiadapter.NewV2(mux)

	container.Logger.Info("lambda cold start complete",
		zap.Duration("duration", time.Since(coldStartTime)),
	)
}

// Handler proxies API Gateway v2 events through the Chi router.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if err != nil || resp.StatusCode >= 500 {
		container.Logger.Error("lambda request failed",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
	}

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
