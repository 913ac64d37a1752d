// Lambda issuer: mints a new word code from the per-day DynamoDB counter and
// the KMS MAC oracle, and returns it over an API Gateway proxy event.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/stefando/wordauth/internal/config"
	"github.com/stefando/wordauth/internal/counter"
	"github.com/stefando/wordauth/internal/mac"
	"github.com/stefando/wordauth/internal/token"
)

var (
	logger   *slog.Logger
	protocol *token.Protocol
)

func init() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.KeyID == "" {
		logger.Error("TOKEN_KMS_KEY_ID not set")
		os.Exit(1)
	}
	if cfg.CounterTable == "" {
		logger.Error("COUNTER_TABLE_NAME not set")
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	protocol = token.New(
		counter.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.CounterTable),
		mac.NewKMSOracle(kms.NewFromConfig(awsCfg)),
		token.Config{
			KeyID:              cfg.KeyID,
			TTLHours:           cfg.CodeTTLHours,
			SkewToleranceHours: cfg.SkewToleranceHours,
		},
		logger,
	)
}

type issueResponse struct {
	Words          string `json:"words"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

func handler(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	code, err := protocol.Issue(ctx)
	if err != nil {
		logger.Error("issuance failed", "error", err)
		return jsonResponse(http.StatusServiceUnavailable, map[string]string{
			"error": "failed to issue code",
		}), nil
	}

	return jsonResponse(http.StatusOK, issueResponse{
		Words:          code.Words,
		ExpiresInHours: code.ExpiresInHours,
	}), nil
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":"internal server error"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(payload),
	}
}

func main() {
	lambda.Start(handler)
}
