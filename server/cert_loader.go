package server

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

const defaultCertCheckInterval = time.Minute

// CertLoader serves a TLS key pair from disk and picks up replaced files.
// The files are checked at most once per interval, on the first handshake
// after it elapses.
type CertLoader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cert      *tls.Certificate
	loadedAt  time.Time
	lastCheck time.Time
}

// NewCertLoader loads the key pair. It fails if the files cannot be read.
func NewCertLoader(certFile, keyFile string, logger *slog.Logger) (*CertLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &CertLoader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger,
		interval: defaultCertCheckInterval,
		now:      time.Now,
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// GetCertificate is a callback for tls.Config.GetCertificate. When a reload
// fails the previous certificate keeps being served.
func (l *CertLoader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCheck) < l.interval {
		return l.cert, nil
	}
	l.lastCheck = now

	if l.changed() {
		if err := l.load(); err != nil {
			l.logger.Error("failed to reload certificate", "error", err)
		}
	}
	return l.cert, nil
}

// changed reports whether either file was modified after the last load.
func (l *CertLoader) changed() bool {
	for _, path := range []string{l.certFile, l.keyFile} {
		info, err := os.Stat(path)
		if err != nil {
			l.logger.Error("failed to stat certificate file", "path", path, "error", err)
			return false
		}
		if info.ModTime().After(l.loadedAt) {
			return true
		}
	}
	return false
}

func (l *CertLoader) load() error {
	cert, err := tls.LoadX509KeyPair(l.certFile, l.keyFile)
	if err != nil {
		return fmt.Errorf("loading tls key pair: %w", err)
	}
	l.cert = &cert
	l.loadedAt = l.now()
	l.lastCheck = l.loadedAt
	l.logger.Info("loaded tls certificate", "cert", l.certFile, "key", l.keyFile)
	return nil
}
