// Package tls builds the server's crypto/tls configuration from the
// TOML [server.tls] section, generating a self-signed certificate on
// first start when asked to.
package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loykin/proctor/internal/config"
)

const (
	tlsCaCrt = "tls_ca.crt"
	tlsCrt   = "tls.crt"
	tlsKey   = "tls.key"
)

func parseVersion(ver string) (uint16, bool) {
	switch ver {
	case "", "default":
		return tls.VersionTLS13, false
	case "1.2", "TLS1.2", "tls1.2":
		return tls.VersionTLS12, true
	case "1.3", "TLS1.3", "tls1.3":
		return tls.VersionTLS13, true
	default:
		return 0, false
	}
}

func resolveVersions(tc *config.TLSConfig) (minVer uint16, maxVer uint16) {
	minVer = tls.VersionTLS13
	maxVer = tls.VersionTLS13
	if v, ok := parseVersion(tc.MinVersion); ok {
		minVer = v
	}
	if v, ok := parseVersion(tc.MaxVersion); ok {
		maxVer = v
	}
	return
}

// safeReadFile refuses paths that escape baseDir so a swapped symlink
// cannot point the reload at foreign files.
func safeReadFile(baseDir, p string) ([]byte, error) {
	clean := filepath.Clean(p)
	if baseDir != "" {
		absBase, _ := filepath.Abs(baseDir)
		absFile, _ := filepath.Abs(clean)
		if !strings.HasPrefix(absFile, absBase+string(filepath.Separator)) && absFile != absBase {
			return nil, errors.New("file path outside of allowed directory")
		}
	}
	return os.ReadFile(clean)
}

// getCertificateFunc loads the key pair per handshake, so rotated
// certificate files take effect without a restart.
func getCertificateFunc(certFile, keyFile string) func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	baseDir := filepath.Dir(certFile)
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		readCert, err := safeReadFile(baseDir, certFile)
		if err != nil {
			return nil, err
		}
		readKey, err := safeReadFile(baseDir, keyFile)
		if err != nil {
			return nil, err
		}
		certificate, err := tls.X509KeyPair(readCert, readKey)
		if err != nil {
			return nil, err
		}
		return &certificate, nil
	}
}

// Setup turns the TOML TLS section into a crypto/tls configuration.
// It returns (nil, nil) when TLS is disabled. Explicit cert_file and
// key_file win over dir; with dir plus auto_generate a self-signed
// certificate is created on first use.
func Setup(tc *config.TLSConfig) (*tls.Config, error) {
	if tc == nil || !tc.Enabled {
		return nil, nil
	}

	minVer, maxVer := resolveVersions(tc)

	if tc.CertFile != "" && tc.KeyFile != "" {
		return newConfig(tc.CertFile, tc.KeyFile, minVer, maxVer), nil
	}

	if tc.Dir != "" {
		certPath := filepath.Join(tc.Dir, tlsCrt)
		keyPath := filepath.Join(tc.Dir, tlsKey)
		if tc.AutoGenerate && !certificatesExist(certPath, keyPath) {
			if err := generateCertificate(tc, tc.Dir); err != nil {
				return nil, fmt.Errorf("certificate generation failed: %w", err)
			}
		}
		return newConfig(certPath, keyPath, minVer, maxVer), nil
	}

	return nil, errors.New("tls enabled but neither cert_file/key_file nor dir configured")
}

func newConfig(certPath, keyPath string, minVer, maxVer uint16) *tls.Config {
	// #nosec G402 -- minimum version is operator-selected, floor is 1.2
	return &tls.Config{
		GetCertificate: getCertificateFunc(certPath, keyPath),
		MinVersion:     minVer,
		MaxVersion:     maxVer,
	}
}

func certificatesExist(certPath, keyPath string) bool {
	_, certErr := os.Stat(certPath)
	_, keyErr := os.Stat(keyPath)
	return certErr == nil && keyErr == nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDefaultSlice(value, fallback []string) []string {
	if len(value) == 0 {
		return fallback
	}
	return value
}

func generateCertificate(tc *config.TLSConfig, destDir string) error {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}

	autoGen := tc.AutoGen
	if autoGen == nil {
		autoGen = &config.AutoGenTLS{}
	}

	validDays := autoGen.ValidDays
	if validDays <= 0 {
		validDays = 365
	}

	return GenerateSelfSignedCert(CertConfig{
		CommonName:   orDefault(autoGen.CommonName, "localhost"),
		Organization: orDefault(autoGen.Organization, "proctor"),
		DNSNames:     orDefaultSlice(autoGen.DNSNames, []string{"localhost"}),
		IPAddresses:  orDefaultSlice(autoGen.IPAddresses, []string{"127.0.0.1"}),
		NotAfter:     time.Now().AddDate(0, 0, validDays),
		CertPath:     filepath.Join(destDir, tlsCrt),
		KeyPath:      filepath.Join(destDir, tlsKey),
		CACertPath:   filepath.Join(destDir, tlsCaCrt),
	})
}
