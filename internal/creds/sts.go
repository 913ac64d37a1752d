// Package creds brokers short-lived, prefix-scoped credentials for upload
// operations. Callers never receive the service's own role; every upload goes
// through credentials narrowed to one principal's key prefix.
package creds

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
)

// Broker hands out temporary credentials limited to a single key prefix.
type Broker interface {
	AssumeUploadRole(ctx context.Context, principal, bucket, keyPrefix string, ttl time.Duration) (aws.Credentials, error)
}

// STSBroker implements Broker with sts:AssumeRole plus an inline session
// policy restricting the session to object writes under the given prefix.
type STSBroker struct {
	client  *sts.Client
	roleArn string
}

func NewSTSBroker(client *sts.Client, roleArn string) *STSBroker {
	return &STSBroker{client: client, roleArn: roleArn}
}

// uploadScopePolicy is the inline session policy attached to every assumed
// session. The role's own policy is the ceiling; this narrows it to one
// principal's prefix.
func uploadScopePolicy(bucket, keyPrefix string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Action":["s3:PutObject","s3:ListMultipartUploadParts","s3:AbortMultipartUpload"],"Resource":"arn:aws:s3:::%s/%s*"}]}`,
		bucket, keyPrefix)
}

func (b *STSBroker) AssumeUploadRole(ctx context.Context, principal, bucket, keyPrefix string, ttl time.Duration) (aws.Credentials, error) {
	if principal == "" {
		return aws.Credentials{}, fmt.Errorf("principal cannot be empty")
	}
	if b.roleArn == "" {
		return aws.Credentials{}, fmt.Errorf("upload role ARN not configured")
	}

	// STS rejects session durations under 15 minutes.
	if ttl < 15*time.Minute {
		ttl = 15 * time.Minute
	}

	// Session name carries the principal and a timestamp so CloudTrail can
	// attribute individual uploads.
	sessionName := fmt.Sprintf("upload-%s-%d", principal, time.Now().Unix())

	out, err := b.client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(b.roleArn),
		RoleSessionName: aws.String(sessionName),
		Policy:          aws.String(uploadScopePolicy(bucket, keyPrefix)),
		DurationSeconds: aws.Int32(int32(ttl / time.Second)),
		Tags: []types.Tag{
			{
				Key:   aws.String("principal"),
				Value: aws.String(principal),
			},
		},
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("failed to assume upload role for principal %s: %w", principal, err)
	}

	c := out.Credentials
	return aws.Credentials{
		AccessKeyID:     *c.AccessKeyId,
		SecretAccessKey: *c.SecretAccessKey,
		SessionToken:    *c.SessionToken,
		Source:          "STSBroker",
		CanExpire:       true,
		Expires:         *c.Expiration,
	}, nil
}
