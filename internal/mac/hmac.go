package mac

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// HMACOracle is a local HMAC-SHA-256 oracle keyed by in-memory secrets per
// key ID. It serves the devtoken CLI and tests; the lambda binaries always
// go through KMS.
type HMACOracle struct {
	secrets map[string][]byte
}

func NewHMACOracle(secrets map[string][]byte) *HMACOracle {
	return &HMACOracle{secrets: secrets}
}

func (o *HMACOracle) GenerateMAC(_ context.Context, keyID, message string) ([]byte, error) {
	secret, ok := o.secrets[keyID]
	if !ok {
		return nil, fmt.Errorf("no secret configured for key %q", keyID)
	}
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(message))
	return m.Sum(nil), nil
}
