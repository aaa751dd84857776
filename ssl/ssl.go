package ssl

import (
	"crypto/x509"
	"fmt"
	"os"

	"github.com/golang/glog"
)

// GetRootCAPool returns the system root CA pool. An empty pool is returned when the system
// pool cannot be loaded, so certificates can still be appended from a file.
func GetRootCAPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		glog.Warningf("Could not load the system root CA pool: %v", err)
		return x509.NewCertPool()
	}
	return pool
}

// AppendPEMFileToRootCAPool appends the certificates of a PEM file to certPool. An empty
// file name leaves the pool unchanged.
func AppendPEMFileToRootCAPool(certPool *x509.CertPool, pemFileName string) (*x509.CertPool, error) {
	if certPool == nil {
		certPool = x509.NewCertPool()
	}
	if pemFileName == "" {
		return certPool, nil
	}

	pemCerts, err := os.ReadFile(pemFileName)
	if err != nil {
		return certPool, fmt.Errorf("Failed to read file %s: %v", pemFileName, err)
	}
	if !certPool.AppendCertsFromPEM(pemCerts) {
		return certPool, fmt.Errorf("No certificates found in %s", pemFileName)
	}
	return certPool, nil
}
