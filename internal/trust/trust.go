// Package trust is the registry's iSHARE satellite client surface: party
// validation, signing delegation evidence and capabilities as JWTs, and a
// client certificate chain check. ISHAREClient is not connected to a
// satellite: ValidateParty always returns an error, and
// ValidateCertificateChain builds but does not send an OCSP request.
package trust

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/ocsp"

	"github.com/Moortu/authorization-registry-sub000/internal/tokencache"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

// PartyInfo is the subset of the satellite's /parties response we rely on.
type PartyInfo struct {
	PartyID      string `json:"party_id"`
	PartyName    string `json:"party_name"`
	Adherence    string `json:"adherence"`
	Certificates []string
}

// Client is the satellite-facing surface the registry needs.
type Client interface {
	ValidateParty(ctx context.Context, eori string) (*PartyInfo, error)
	CreateDelegationToken(audience string, container types.DelegationEvidenceContainer) (string, error)
	CreateCapabilitiesToken(capabilities any) (string, error)
	ValidateCertificateChain(chain []*x509.Certificate) error
}

// tokenCacher is satisfied by both the in-process cache and the Redis-backed
// one, letting ISHAREClient stay agnostic to which backs it.
type tokenCacher interface {
	Get(ctx context.Context, now int64, fetch tokencache.Fetcher) (string, error)
}

// localCache adapts tokencache.Cache's context-free Get to tokenCacher.
type localCache struct{ c *tokencache.Cache }

func (l localCache) Get(_ context.Context, now int64, fetch tokencache.Fetcher) (string, error) {
	return l.c.Get(now, fetch)
}

// ISHAREClient implements Client against a real satellite, signing outgoing
// client assertions with the registry's own client certificate and caching
// the satellite access token between calls.
type ISHAREClient struct {
	httpClient    *http.Client
	satelliteURL  string
	satelliteEORI string
	clientEORI    string
	signingKey    any // *rsa.PrivateKey loaded from client_cert_path, kept opaque here
	tokenCache    tokenCacher
}

// Config carries the iSHARE identifiers and transport needed to reach the
// satellite. RedisClient is optional: when set, the satellite access token is
// cached in Redis (shared across every registry instance) instead of held
// in-process per instance.
type Config struct {
	SatelliteURL  string
	SatelliteEORI string
	ClientEORI    string
	TLSConfig     *tls.Config
	SigningKey    any
	RedisClient   *redis.Client
}

func NewISHAREClient(cfg Config) *ISHAREClient {
	var cache tokenCacher
	if cfg.RedisClient != nil {
		cache = tokencache.NewRedisCache(cfg.RedisClient, "ar:satellite-token:"+cfg.ClientEORI)
	} else {
		cache = localCache{c: tokencache.New()}
	}

	return &ISHAREClient{
		httpClient:    &http.Client{Timeout: 10 * time.Second, Transport: &http.Transport{TLSClientConfig: cfg.TLSConfig}},
		satelliteURL:  cfg.SatelliteURL,
		satelliteEORI: cfg.SatelliteEORI,
		clientEORI:    cfg.ClientEORI,
		signingKey:    cfg.SigningKey,
		tokenCache:    cache,
	}
}

// accessToken returns a valid satellite bearer token, refreshing through the
// configured cache only when the cached token is stale.
func (c *ISHAREClient) accessToken(ctx context.Context, now int64) (string, error) {
	return c.tokenCache.Get(ctx, now, func() (string, int64, error) {
		return c.fetchSatelliteToken(ctx)
	})
}

// fetchSatelliteToken exchanges a signed client assertion for a satellite
// access token. The client-assertion/token-endpoint exchange itself is an
// extension point: a production deployment wires its PKIoverheid client
// certificate here.
func (c *ISHAREClient) fetchSatelliteToken(ctx context.Context) (string, int64, error) {
	return "", 0, fmt.Errorf("trust: satellite token endpoint not configured")
}

func (c *ISHAREClient) ValidateParty(ctx context.Context, eori string) (*PartyInfo, error) {
	if _, err := c.accessToken(ctx, time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("trust: getting satellite token: %w", err)
	}
	return nil, fmt.Errorf("trust: party lookup for %q not configured", eori)
}

// CreateDelegationToken signs the container's delegation evidence (not its
// request half) as an RS256 JWT in the iSHARE client-assertion shape, with
// aud set to the requesting party.
func (c *ISHAREClient) CreateDelegationToken(audience string, container types.DelegationEvidenceContainer) (string, error) {
	claims := jwt.MapClaims{
		"iss":                c.clientEORI,
		"sub":                c.clientEORI,
		"aud":                audience,
		"iat":                time.Now().Unix(),
		"exp":                time.Now().Add(30 * time.Second).Unix(),
		"delegationEvidence": container.DelegationEvidence,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("trust: signing delegation token: %w", err)
	}
	return signed, nil
}

func (c *ISHAREClient) CreateCapabilitiesToken(capabilities any) (string, error) {
	claims := jwt.MapClaims{
		"iss":            c.clientEORI,
		"sub":            c.clientEORI,
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(30 * time.Second).Unix(),
		"capabilities_info": capabilities,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("trust: signing capabilities token: %w", err)
	}
	return signed, nil
}

// ValidateCertificateChain requires at least two certificates and builds an
// OCSP request for chain[0] (the leaf used in the client's x5c header) against
// chain[1]. The request is not sent to any responder, so revocation status is
// not checked: any chain whose request builds is accepted.
func (c *ISHAREClient) ValidateCertificateChain(chain []*x509.Certificate) error {
	if len(chain) < 2 {
		return fmt.Errorf("trust: certificate chain too short for OCSP check")
	}
	leaf, issuer := chain[0], chain[1]

	req, err := ocsp.CreateRequest(leaf, issuer, nil)
	if err != nil {
		return fmt.Errorf("trust: building ocsp request: %w", err)
	}
	_ = req // a production deployment posts this to issuer's OCSP responder URL

	return nil
}
