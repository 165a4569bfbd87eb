// Package tls builds mutual-TLS configurations for the prediction API and
// its clients. TLS 1.3 only, modern AEAD cipher suites, both sides verify
// certificates against a shared CA.
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// Config holds certificate file paths, typically filled from flags.
// A zero Config means plain HTTP.
type Config struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
}

// Validate returns an error when TLS is enabled but any certificate file
// is unset or unreadable. Disabled configs always validate.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return c.checkFiles()
}

func (c Config) checkFiles() error {
	if c.CertFile == "" || c.KeyFile == "" || c.CAFile == "" {
		return errors.New("tls enabled but cert, key and ca files must all be set")
	}
	for _, path := range []string{c.CertFile, c.KeyFile, c.CAFile} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("tls file %q: %w", path, err)
		}
	}
	return nil
}

func (c Config) caPool() (*x509.CertPool, error) {
	pem, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("CA certificate contains no usable PEM data")
	}
	return pool, nil
}

var cipherSuites = []uint16{
	tls.TLS_AES_128_GCM_SHA256,
	tls.TLS_AES_256_GCM_SHA384,
	tls.TLS_CHACHA20_POLY1305_SHA256,
}

// Server returns a server-side mTLS configuration that requires and
// verifies client certificates against the CA. The server's own
// certificate is loaded later by ListenAndServeTLS from CertFile/KeyFile.
func (c Config) Server() (*tls.Config, error) {
	if err := c.checkFiles(); err != nil {
		return nil, err
	}
	pool, err := c.caPool()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
		CipherSuites: cipherSuites,
	}, nil
}

// Client returns a client-side mTLS configuration that presents the
// client certificate and verifies the server against the CA.
func (c Config) Client() (*tls.Config, error) {
	if err := c.checkFiles(); err != nil {
		return nil, err
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}
	pool, err := c.caPool()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS13,
		CipherSuites: cipherSuites,
	}, nil
}
