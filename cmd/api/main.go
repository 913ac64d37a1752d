// Lambda API: the upload surface behind the word-code authorizer. A chi
// router handles presign and multipart routes plus a standalone /validate
// endpoint; the lambda adapter translates API Gateway proxy events.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stefando/wordauth/internal/config"
	"github.com/stefando/wordauth/internal/creds"
	"github.com/stefando/wordauth/internal/mac"
	"github.com/stefando/wordauth/internal/token"
	"github.com/stefando/wordauth/internal/upload"
)

var (
	logger        *slog.Logger
	uploadService *upload.Service
	protocol      *token.Protocol
)

func init() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for name, v := range map[string]string{
		"TOKEN_KMS_KEY_ID": cfg.KeyID,
		"UPLOAD_BUCKET":    cfg.Bucket,
		"UPLOAD_ROLE_ARN":  cfg.UploadRoleArn,
	} {
		if v == "" {
			logger.Error("required env variable not set", "name", name)
			os.Exit(1)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	uploadService = upload.NewService(
		creds.NewSTSBroker(sts.NewFromConfig(awsCfg), cfg.UploadRoleArn),
		upload.NewS3Provider(awsCfg, cfg.Bucket),
		cfg.Bucket,
		upload.ParseAllowList(cfg.AllowedContentTypes),
		cfg.PresignTTL,
		cfg.MaxUploadBytes,
		logger,
	)

	// Validate-only protocol for the standalone /validate endpoint.
	protocol = token.New(nil, mac.NewKMSOracle(kms.NewFromConfig(awsCfg)), token.Config{
		KeyID:              cfg.KeyID,
		TTLHours:           cfg.CodeTTLHours,
		SkewToleranceHours: cfg.SkewToleranceHours,
	}, logger)

	logger.Info("services initialized", "bucket", cfg.Bucket)
}

func setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/upload", func(r chi.Router) {
		r.Post("/presign", handlePresign)
		r.Post("/initiate", handleInitiate)
		r.Post("/part", handlePartURL)
		r.Post("/parts", handleListParts)
		r.Post("/complete", handleComplete)
		r.Post("/abort", handleAbort)
	})
	r.Post("/validate", handleValidate)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

// lambdaHandler adapts API Gateway proxy events to the chi router and lifts
// the authorizer's principal into the request context.
func lambdaHandler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	httpReq, err := httpRequestFrom(ctx, req)
	if err != nil {
		logger.Error("failed to build http request", "error", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       "Internal server error",
		}, nil
	}

	if req.RequestContext.Authorizer != nil {
		if principal, ok := req.RequestContext.Authorizer["principal_id"].(string); ok && principal != "" {
			httpReq = httpReq.WithContext(withPrincipal(httpReq.Context(), principal))
		}
	}

	recorder := newResponseRecorder()
	setupRouter().ServeHTTP(recorder, httpReq)
	return recorder.proxyResponse(), nil
}

func main() {
	lambda.Start(lambdaHandler)
}
