package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerCertificate(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	certPEM, keyPEM, err := ServerCertificate([]string{"localhost", "127.0.0.1"}, now, 30*24*time.Hour)
	require.NoError(t, err)

	_, err = tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err, "certificate and key must match")

	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cert.Subject.CommonName)
	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.True(t, cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
	assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, cert.ExtKeyUsage)
	assert.True(t, cert.NotAfter.Equal(now.Add(30*24*time.Hour)))
	assert.NoError(t, cert.VerifyHostname("localhost"))
}

func TestServerCertificate_NoHosts(t *testing.T) {
	_, _, err := ServerCertificate(nil, time.Now(), time.Hour)
	assert.Error(t, err)
}

func TestWriteFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	certPath, keyPath, err := WriteFiles(fs, "certs", []byte("cert"), []byte("key"))
	require.NoError(t, err)
	assert.Equal(t, "certs/server.crt", certPath)

	data, err := afero.ReadFile(fs, keyPath)
	require.NoError(t, err)
	assert.Equal(t, "key", string(data))

	info, err := fs.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())
}

func TestWriteFiles_ReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	_, _, err := WriteFiles(fs, "certs", []byte("cert"), []byte("key"))
	assert.Error(t, err)
}
