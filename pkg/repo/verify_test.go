package repo

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/filesystem"
	"github.com/arthur-debert/bulge/pkg/lock"
	"github.com/arthur-debert/bulge/pkg/testutil"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSigner(t *testing.T) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity("Repo Signer", "test", "signer@example.org", nil)
	require.NoError(t, err)
	return entity
}

func sign(t *testing.T, entity *openpgp.Entity, data []byte) []byte {
	t.Helper()
	var sig bytes.Buffer
	require.NoError(t, openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(data), nil))
	return sig.Bytes()
}

func armoredPublicKey(t *testing.T, entity *openpgp.Entity) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestHashHex(t *testing.T) {
	// sha512("abc")
	assert.Equal(t,
		"ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f",
		HashHex([]byte("abc")))

	_, ok := HashMatches([]byte("abc"), []byte(HashHex([]byte("abc"))))
	assert.True(t, ok)
}

func TestKeyringVerifier(t *testing.T) {
	trusted := newSigner(t)
	stranger := newSigner(t)
	data := []byte("database")

	fsys := filesystem.NewMemoryFS()
	require.NoError(t, fsys.MkdirAll("/etc/bulge", 0755))
	require.NoError(t, fsys.WriteFile("/etc/bulge/keyring.asc", armoredPublicKey(t, trusted), 0644))

	v, err := LoadKeyring(fsys, "/etc/bulge/keyring.asc")
	require.NoError(t, err)

	assert.NoError(t, v.Verify(data, sign(t, trusted, data)))
	assert.Error(t, v.Verify([]byte("tampered"), sign(t, trusted, data)))
	assert.Error(t, v.Verify(data, sign(t, stranger, data)))
}

func TestLoadKeyringErrors(t *testing.T) {
	fsys := filesystem.NewMemoryFS()
	_, err := LoadKeyring(fsys, "/missing.asc")
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))

	require.NoError(t, fsys.WriteFile("/bad.asc", []byte("not a key"), 0644))
	_, err = LoadKeyring(fsys, "/bad.asc")
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigInvalid))
}

func TestSyncWithSignatures(t *testing.T) {
	trusted := newSigner(t)
	stranger := newSigner(t)
	db := []byte(`{"packages": []}`)
	hash := []byte(HashHex(db))

	m1 := testutil.NewMirrorServer(t).
		Serve("/core/database.db", db).
		Serve("/core/database.hash", hash)
	m2 := testutil.NewMirrorServer(t).
		Serve("/core/database.db", db).
		Serve("/core/database.hash", hash).
		Serve("/core/database.sig", sign(t, stranger, db))
	m3 := testutil.NewMirrorServer(t).
		Serve("/core/database.db", db).
		Serve("/core/database.hash", hash).
		Serve("/core/database.sig", sign(t, trusted, db))

	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	cache := NewCache(env.FS, env.Paths)
	syncer := NewSyncer(cache, lock.New(env.FS, env.Paths.LockPath()),
		NewHTTPFetcher(5*time.Second, false),
		NewKeyringVerifier(openpgp.EntityList{trusted}), nil)

	report, err := syncer.Sync(context.Background(), []types.Source{{Name: "core"}},
		[]string{m1.URL + "/$repo", m2.URL + "/$repo", m3.URL + "/$repo"})
	require.NoError(t, err)

	result := report.Sources[0]
	require.True(t, result.Synced)
	assert.Equal(t, m3.URL+"/core", result.Mirror)
	require.Len(t, result.Attempts, 3)
	assert.True(t, errors.IsErrorCode(result.Attempts[0].Err, errors.ErrFetch), "missing signature")
	assert.True(t, errors.IsErrorCode(result.Attempts[1].Err, errors.ErrSignature), "untrusted signer")
}
