// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

// TLSOption modifies the TLS configuration for each new connection.
type TLSOption func(context.Context, *tls.Config) error

const (
	pbkdf2Iterations = 10000
	pbkdf2KeyLength  = 32
	pbkdf2SaltLength = 8
)

// Build a fresh TLS configuration from the options.
func tlsConfig(
	ctx context.Context,
	hostname string,
	opts []TLSOption,
) (*tls.Config, error) {
	config := &tls.Config{
		ServerName: hostname,
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
	}
	for _, opt := range opts {
		if err := opt(ctx, config); err != nil {
			return nil, &ConnectionError{
				message: "error getting TLS configuration",
				wrapped: err,
			}
		}
	}
	return config, nil
}

// WithX509 adds a client certificate from the given PEM certificate and key
// files.
func WithX509(certFile, keyFile string) TLSOption {
	return func(_ context.Context, cfg *tls.Config) error {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return err
		}
		cfg.Certificates = append(cfg.Certificates, cert)
		return nil
	}
}

// WithEncryptedX509 adds a client certificate whose private key is encrypted
// with the password stored in passwordFile.
func WithEncryptedX509(certFile, keyFile, passwordFile string) TLSOption {
	return func(_ context.Context, cfg *tls.Config) error {
		password, err := os.ReadFile(passwordFile)
		if err != nil {
			return err
		}
		cert, err := loadX509KeyPairWithPassword(certFile, keyFile, password)
		if err != nil {
			return err
		}
		cfg.Certificates = append(cfg.Certificates, cert)
		return nil
	}
}

// WithCA trusts the CA certificates in the given PEM file.
func WithCA(caFile string) TLSOption {
	return func(_ context.Context, cfg *tls.Config) error {
		pool, err := loadCACertPool(caFile)
		if err != nil {
			return err
		}
		cfg.RootCAs = pool
		return nil
	}
}

// WithInsecureSkipVerify disables server certificate verification. Only use
// this against a local development broker.
func WithInsecureSkipVerify() TLSOption {
	return func(_ context.Context, cfg *tls.Config) error {
		cfg.InsecureSkipVerify = true // #nosec G402
		return nil
	}
}

func loadCACertPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("no CA certificates found in " + caFile)
	}
	return pool, nil
}

// Decrypt a PEM block whose bytes are salt | nonce | AES-GCM ciphertext, with
// the key derived from the password using PBKDF2-SHA3-256.
func decryptPEMBlock(block *pem.Block, password []byte) ([]byte, error) {
	if block == nil {
		return nil, errors.New("PEM block is nil")
	}
	if len(block.Bytes) < pbkdf2SaltLength+aesGcmNonce {
		return nil, errors.New("ciphertext in PEM block is too short")
	}

	salt := block.Bytes[:pbkdf2SaltLength]
	key := pbkdf2.Key(
		password,
		salt,
		pbkdf2Iterations,
		pbkdf2KeyLength,
		sha3.New256,
	)
	return aesGCMDecrypt(block.Bytes[pbkdf2SaltLength:], key)
}

func aesGCMDecrypt(encrypted, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	if len(encrypted) < aesGcmNonce {
		return nil, errors.New("ciphertext in PEM block is too short")
	}
	nonce, ciphertext := encrypted[:aesGcmNonce], encrypted[aesGcmNonce:]

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func loadX509KeyPairWithPassword(
	certFile string,
	keyFile string,
	password []byte,
) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, err
	}

	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, err
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return tls.Certificate{}, errors.New(
			"failed to decode PEM block containing private key",
		)
	}

	// x509.DecryptPEMBlock is deprecated as insecure, so the key uses its
	// own AES-GCM envelope.
	der, err := decryptPEMBlock(keyBlock, password)
	if err != nil {
		return tls.Certificate{}, err
	}

	decrypted := pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: der,
	})
	return tls.X509KeyPair(certPEM, decrypted)
}

// Read the subject common name of the first certificate in a PEM file.
func certCommonName(certFile string) (string, error) {
	data, err := os.ReadFile(certFile)
	if err != nil {
		return "", err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return "", errors.New("no PEM certificate found in " + certFile)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", err
	}
	return cert.Subject.CommonName, nil
}
