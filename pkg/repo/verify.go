package repo

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/types"
)

// HashHex returns the lower-case hex SHA-512 of data
func HashHex(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// HashMatches compares the digest of data with the content of a hash
// resource and returns the computed digest. The comparison is exact: case
// and trailing bytes matter.
func HashMatches(data, hashResource []byte) (string, bool) {
	computed := HashHex(data)
	return computed, computed == string(hashResource)
}

// SignatureVerifier checks a detached signature over data
type SignatureVerifier interface {
	Verify(data, signature []byte) error
}

// KeyringVerifier verifies armored detached OpenPGP signatures
type KeyringVerifier struct {
	keyring openpgp.KeyRing
}

// NewKeyringVerifier trusts every key of keyring
func NewKeyringVerifier(keyring openpgp.KeyRing) *KeyringVerifier {
	return &KeyringVerifier{keyring: keyring}
}

// LoadKeyring reads an armored public keyring
func LoadKeyring(fsys types.FS, path string) (*KeyringVerifier, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read keyring %s", path).
			WithDetail("path", path)
	}
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "invalid keyring %s", path).
			WithDetail("path", path)
	}
	return NewKeyringVerifier(keyring), nil
}

// Verify implements SignatureVerifier
func (v *KeyringVerifier) Verify(data, signature []byte) error {
	signer, err := openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	if signer == nil {
		return fmt.Errorf("signed by unknown key")
	}
	return nil
}
