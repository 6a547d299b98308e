package cli

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

func (o *rootOptions) publicKey(name string) (ed25519.PublicKey, error) {
	value := o.v.GetString(name)
	if len(value) == 0 {
		return nil, errors.Errorf("--%s is required", name)
	}

	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", name)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid --%s: expected %d bytes, got %d", name, ed25519.PublicKeySize, len(decoded))
	}
	return decoded, nil
}

// privateKey returns the key named by the flag, or a freshly generated one
// when the flag is empty.
func (o *rootOptions) privateKey(name string) (ed25519.PrivateKey, error) {
	value := o.v.GetString(name)
	if len(value) == 0 {
		_, key, err := ed25519.GenerateKey(nil)
		return key, err
	}

	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", name)
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid --%s: expected %d bytes, got %d", name, ed25519.PrivateKeySize, len(decoded))
	}
	return decoded, nil
}
