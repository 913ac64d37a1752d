// Lambda authorizer: validates word codes presented in the Authorization
// header and answers API Gateway with an IAM policy. On success the embedded
// counter travels to downstream handlers as the principal ID.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/stefando/wordauth/internal/config"
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

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Validate-only deployment: no counter store.
	protocol = token.New(nil, mac.NewKMSOracle(kms.NewFromConfig(awsCfg)), token.Config{
		KeyID:              cfg.KeyID,
		TTLHours:           cfg.CodeTTLHours,
		SkewToleranceHours: cfg.SkewToleranceHours,
	}, logger)
}

func handler(ctx context.Context, event events.APIGatewayCustomAuthorizerRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	words := strings.TrimSpace(strings.TrimPrefix(event.AuthorizationToken, "Bearer "))
	if words == "" {
		return deny(event.MethodArn), nil
	}

	principal, err := protocol.Validate(ctx, words)
	if err != nil {
		var denial *token.Denial
		if errors.As(err, &denial) {
			logger.Warn("authorization denied", "reason", string(denial.Reason))
			return deny(event.MethodArn), nil
		}
		// Oracle trouble: let API Gateway answer 500 so the client retries.
		logger.Error("authorization failed", "error", err)
		return events.APIGatewayCustomAuthorizerResponse{}, err
	}

	logger.Info("authorization successful", "principal", principal.String())
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID:    principal.String(),
		PolicyDocument: policy("Allow", event.MethodArn),
		Context: map[string]interface{}{
			"principal_id": principal.String(),
		},
	}, nil
}

func deny(resource string) events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID:    "unauthorized",
		PolicyDocument: policy("Deny", resource),
	}
}

func policy(effect, resource string) events.APIGatewayCustomAuthorizerPolicy {
	return events.APIGatewayCustomAuthorizerPolicy{
		Version: "2012-10-17",
		Statement: []events.IAMPolicyStatement{{
			Action:   []string{"execute-api:Invoke"},
			Effect:   effect,
			Resource: []string{resource},
		}},
	}
}

func main() {
	lambda.Start(handler)
}
