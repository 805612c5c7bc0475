package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"talentsparkle/internal/config"
	"talentsparkle/internal/errors"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounceDelay = time.Second

// CertReloader serves the server certificate to the TLS stack and, when
// watching, reloads it from disk after the cert or key file changes.
type CertReloader struct {
	mu sync.RWMutex

	cfg    config.TLSConfig
	cert   *tls.Certificate
	expiry time.Time

	reloads int64

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer
	stopChan      chan struct{}
	reloadChan    chan struct{}
	running       bool

	// onReload runs after every reload attempt triggered by a file change
	onReload func(err error)
	logger   *errors.Logger
}

// NewCertReloader loads the initial key pair from files or PEM content
func NewCertReloader(cfg config.TLSConfig, onReload func(err error), logger *errors.Logger) (*CertReloader, error) {
	delay := cfg.AutoReload.DebounceDelay
	if delay <= 0 {
		delay = defaultDebounceDelay
	}

	cr := &CertReloader{
		cfg:           cfg,
		debounceDelay: delay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onReload:      onReload,
		logger:        logger,
	}
	if err := cr.Reload(); err != nil {
		return nil, err
	}
	return cr, nil
}

// Reload reads the key pair again and swaps it in. On failure the previous
// certificate keeps being served.
func (cr *CertReloader) Reload() error {
	cert, err := loadServerCertificate(cr.cfg)
	if err != nil {
		return err
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}

	cr.mu.Lock()
	cr.cert = &cert
	cr.expiry = leaf.NotAfter
	cr.reloads++
	cr.mu.Unlock()
	return nil
}

// GetCertificate implements tls.Config.GetCertificate
func (cr *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.cert, nil
}

// TimeToExpiry is the time left before the served certificate expires
func (cr *CertReloader) TimeToExpiry() (time.Duration, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	if cr.cert == nil {
		return 0, fmt.Errorf("no certificate loaded")
	}
	return time.Until(cr.expiry), nil
}

// Reloads counts successful loads, including the initial one
func (cr *CertReloader) Reloads() int64 {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.reloads
}

// Start watches the certificate files. PEM content from config cannot
// change at runtime, so there is nothing to watch for it.
func (cr *CertReloader) Start() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.running {
		return fmt.Errorf("certificate watcher is already running")
	}
	files := cr.watchedFiles()
	if len(files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watching directories also catches atomic replaces (rename over the file)
	dirs := map[string]bool{}
	for _, f := range files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	cr.fsWatcher = watcher
	cr.running = true
	go cr.watchLoop(watcher)

	cr.logger.Info("Certificate file watcher started",
		"files", files,
		"debounce_delay", cr.debounceDelay)
	return nil
}

// Stop ends watching. It is safe to call when not running.
func (cr *CertReloader) Stop() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.running {
		return nil
	}
	close(cr.stopChan)
	if cr.debounceTimer != nil {
		cr.debounceTimer.Stop()
	}
	cr.running = false

	if err := cr.fsWatcher.Close(); err != nil {
		cr.logger.LogError(err, "Failed to close file system watcher")
		return err
	}
	cr.logger.Info("Certificate file watcher stopped")
	return nil
}

// IsWatching reports whether file changes trigger reloads
func (cr *CertReloader) IsWatching() bool {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.running
}

func (cr *CertReloader) watchedFiles() []string {
	var files []string
	if cr.cfg.CertFile != "" {
		files = append(files, cr.cfg.CertFile)
	}
	if cr.cfg.KeyFile != "" {
		files = append(files, cr.cfg.KeyFile)
	}
	return files
}

func (cr *CertReloader) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if cr.shouldProcessEvent(event) {
				cr.scheduleReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			cr.logger.LogError(err, "File watcher error")

		case <-cr.reloadChan:
			err := cr.Reload()
			if err != nil {
				cr.logger.LogError(err, "Failed to reload TLS certificates")
			} else {
				cr.logger.Info("TLS certificates reloaded")
			}
			if cr.onReload != nil {
				cr.onReload(err)
			}

		case <-cr.stopChan:
			return
		}
	}
}

// shouldProcessEvent matches writes, creates and renames of a watched file
func (cr *CertReloader) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	for _, file := range cr.watchedFiles() {
		if filepath.Clean(event.Name) == filepath.Clean(file) {
			return true
		}
	}
	return false
}

// scheduleReload coalesces bursts of events (cert then key) into one reload
func (cr *CertReloader) scheduleReload() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.debounceTimer != nil {
		cr.debounceTimer.Stop()
	}
	cr.debounceTimer = time.AfterFunc(cr.debounceDelay, func() {
		select {
		case cr.reloadChan <- struct{}{}:
		default:
		}
	})
}

// loadServerCertificate loads the server certificate from content or files
func loadServerCertificate(cfg config.TLSConfig) (tls.Certificate, error) {
	if cfg.CertContent != "" && cfg.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

// loadCACertificate loads the client CA bundle for mutual TLS
func loadCACertificate(cfg config.TLSConfig) ([]byte, error) {
	if cfg.CAContent != "" {
		return []byte(cfg.CAContent), nil
	}
	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		return caCert, nil
	}
	return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
}
