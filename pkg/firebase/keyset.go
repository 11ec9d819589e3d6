package firebase

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gronit/club-portal/pkg/logger"
)

// GoogleCertsURL serves the x509 certificates that sign Firebase ID tokens
const GoogleCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// failedRefreshBackoff is how long stale keys keep being served after a
// failed refresh before the next attempt.
const failedRefreshBackoff = 30 * time.Second

// ErrUnknownKey is returned when a token's kid is not in the current key set
var ErrUnknownKey = errors.New("firebase: unknown signing key")

// KeySource resolves a token key id to an RSA public key
type KeySource interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// StaticKeys is a fixed KeySource
type StaticKeys map[string]*rsa.PublicKey

// PublicKey implements KeySource
func (s StaticKeys) PublicKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := s[kid]; ok {
		return key, nil
	}
	return nil, ErrUnknownKey
}

// KeySet fetches Google's signing certificates and caches them for the
// duration advertised in Cache-Control max-age. Concurrent lookups against an
// expired cache share one fetch, and a failed fetch keeps the previous keys.
type KeySet struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
	group      singleflight.Group

	mu     sync.RWMutex
	keys   map[string]*rsa.PublicKey
	expiry time.Time
}

// NewKeySet creates a key set for url; an empty url uses GoogleCertsURL
func NewKeySet(url string, httpClient *http.Client) *KeySet {
	if url == "" {
		url = GoogleCertsURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &KeySet{url: url, httpClient: httpClient, now: time.Now}
}

// PublicKey implements KeySource, refreshing the cache when it has expired
func (k *KeySet) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	key, ok, fresh := k.lookup(kid)
	if ok && fresh {
		return key, nil
	}
	if fresh {
		return nil, ErrUnknownKey
	}

	_, err, _ := k.group.Do("certs", func() (any, error) {
		// another caller may have refreshed between lookup and Do
		if _, _, fresh := k.lookup(""); fresh {
			return nil, nil
		}
		return nil, k.refresh(context.WithoutCancel(ctx))
	})

	key, ok, _ = k.lookup(kid)
	switch {
	case ok:
		return key, nil
	case err != nil:
		return nil, err
	default:
		return nil, ErrUnknownKey
	}
}

func (k *KeySet) lookup(kid string) (key *rsa.PublicKey, ok, fresh bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok = k.keys[kid]
	return key, ok, k.now().Before(k.expiry)
}

// refresh replaces the cached keys. On failure any previous keys stay in
// place for failedRefreshBackoff.
func (k *KeySet) refresh(ctx context.Context) error {
	keys, ttl, err := k.fetch(ctx)
	if err != nil {
		k.mu.Lock()
		stale := len(k.keys) > 0
		if stale {
			k.expiry = k.now().Add(failedRefreshBackoff)
		}
		k.mu.Unlock()
		if stale {
			logger.WarnCtx(ctx, "firebase cert refresh failed, serving cached keys", zap.Error(err))
		}
		return err
	}

	k.mu.Lock()
	k.keys = keys
	k.expiry = k.now().Add(ttl)
	k.mu.Unlock()
	return nil
}

func (k *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("firebase: build certs request: %w", err)
	}
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("firebase: fetch certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("firebase: fetch certs: status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return nil, 0, fmt.Errorf("firebase: decode certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := parseCertificateKey(certPEM)
		if err != nil {
			return nil, 0, fmt.Errorf("firebase: cert %s: %w", kid, err)
		}
		keys[kid] = key
	}
	return keys, maxAge(resp.Header.Get("Cache-Control")), nil
}

func parseCertificateKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate key is not RSA")
	}
	return key, nil
}

var maxAgePattern = regexp.MustCompile(`max-age=(\d+)`)

// maxAge extracts max-age from a Cache-Control header, defaulting to one hour
func maxAge(header string) time.Duration {
	m := maxAgePattern.FindStringSubmatch(header)
	if len(m) != 2 {
		return time.Hour
	}
	secs, err := strconv.Atoi(m[1])
	if err != nil || secs <= 0 {
		return time.Hour
	}
	return time.Duration(secs) * time.Second
}
