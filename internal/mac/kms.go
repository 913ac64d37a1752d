// Package mac provides the keyed MAC oracles that sign and verify word codes.
// The production oracle is AWS KMS: key material never leaves the service,
// and both issuance and validation call GenerateMac (validation compares the
// regenerated tag itself instead of using the KMS verify API).
package mac

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

// KMSOracle computes HMAC-SHA-256 tags through the KMS GenerateMac API.
type KMSOracle struct {
	client *kms.Client
}

func NewKMSOracle(client *kms.Client) *KMSOracle {
	return &KMSOracle{client: client}
}

func (o *KMSOracle) GenerateMAC(ctx context.Context, keyID, message string) ([]byte, error) {
	out, err := o.client.GenerateMac(ctx, &kms.GenerateMacInput{
		KeyId:        aws.String(keyID),
		Message:      []byte(message),
		MacAlgorithm: types.MacAlgorithmSpecHmacSha256,
	})
	if err != nil {
		return nil, fmt.Errorf("kms GenerateMac failed: %w", err)
	}
	if len(out.Mac) == 0 {
		return nil, fmt.Errorf("kms returned an empty mac")
	}
	return out.Mac, nil
}
