package ssl

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMockCertificate(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "beacon.test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "mock-certs.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0600))
	return path
}

func TestAppendPEMFileToRootCAPool(t *testing.T) {
	certPool := x509.NewCertPool()

	certPool, err := AppendPEMFileToRootCAPool(certPool, writeMockCertificate(t))
	require.NoError(t, err)
	assert.Len(t, certPool.Subjects(), 1)
}

func TestAppendPEMFileToRootCAPoolNoFile(t *testing.T) {
	certPool, err := AppendPEMFileToRootCAPool(nil, "")
	assert.NoError(t, err)
	assert.NotNil(t, certPool)

	_, err = AppendPEMFileToRootCAPool(x509.NewCertPool(), filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}

func TestAppendPEMFileToRootCAPoolNotPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0600))

	_, err := AppendPEMFileToRootCAPool(x509.NewCertPool(), path)
	assert.Error(t, err)
}

func TestGetRootCAPool(t *testing.T) {
	assert.NotNil(t, GetRootCAPool())
}
