package app

import (
	"bufio"
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/pkg/cryptox"
	"github.com/aussiebroadwan/users/pkg/jwtx"
)

// Keys bundles what token issuance and verification need.
type Keys struct {
	Signer   jwtx.Signer
	Verifier *jwtx.Verifier
	JWKS     jwtx.JWKS
}

// InitKeys builds the signer and verifier for the configured algorithm.
//
// HS256 uses USERS_JWT_SECRET and publishes no JWKS. EdDSA loads the key
// from USERS_JWT_KEY_FILE, or generates an ephemeral one so that every
// token becomes invalid on restart.
func InitKeys(cfg Config, logger *slog.Logger) (*Keys, error) {
	opts := jwtx.VerifyOptions{
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Leeway:   30 * time.Second,
	}

	switch cfg.JWTAlgorithm {
	case AlgHS256:
		signer, err := jwtx.NewSignerHS256(cfg.JWTKeyID, []byte(cfg.JWTSecret))
		if err != nil {
			return nil, err
		}
		logger.Info("jwt signer ready", "alg", signer.Alg(), "kid", signer.KID())
		return &Keys{Signer: signer, Verifier: signer.Verifier(opts)}, nil

	case AlgEdDSA:
		key, err := loadEd25519(cfg.JWTKeyFile, logger)
		if err != nil {
			return nil, err
		}
		signer, err := jwtx.NewSignerEdDSA(cfg.JWTKeyID, key)
		if err != nil {
			return nil, err
		}
		logger.Info("jwt signer ready", "alg", signer.Alg(), "kid", signer.KID())
		return &Keys{
			Signer:   signer,
			Verifier: signer.Verifier(opts),
			JWKS:     jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}},
		}, nil
	}

	return nil, fmt.Errorf("unsupported jwt algorithm %q", cfg.JWTAlgorithm)
}

func loadEd25519(path string, logger *slog.Logger) (ed25519.PrivateKey, error) {
	if path == "" {
		logger.Warn("USERS_JWT_KEY_FILE not set, using an ephemeral Ed25519 key")
		_, key, err := ed25519.GenerateKey(rand.Reader)
		return key, err
	}

	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jwt key: %w", err)
	}
	return cryptox.ParseEd25519Key(pemBytes)
}

// InitHasher loads the pepper from USERS_PEPPER_FILE, creating it on first
// start. Only an in-memory database may run with a per-process pepper,
// since stored hashes would not verify after a restart.
func InitHasher(cfg Config, logger *slog.Logger) (*cryptox.Hasher, error) {
	if cfg.PepperFile == "" {
		if !cfg.InMemoryDatabase() {
			return nil, errors.New("USERS_PEPPER_FILE is required when the database is persistent")
		}
		logger.Warn("USERS_PEPPER_FILE not set, using a random pepper for the in-memory database")
		pepper, err := cryptox.RandomPepper()
		if err != nil {
			return nil, err
		}
		return cryptox.NewHasher(pepper), nil
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, err
	}
	return cryptox.NewHasher(pepper), nil
}

// InitPolicy extends the default password denylist with the entries in
// USERS_PASSWORD_DENYLIST_FILE, one per line. Blank lines and lines
// starting with # are skipped.
func InitPolicy(cfg Config) (domain.Policy, error) {
	policy := domain.DefaultPolicy()
	if cfg.DenylistFile == "" {
		return policy, nil
	}

	b, err := os.ReadFile(cfg.DenylistFile)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("read password denylist: %w", err)
	}

	var words []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return domain.Policy{}, fmt.Errorf("scan password denylist: %w", err)
	}

	policy.Password = policy.Password.WithDenylist(words...)
	return policy, nil
}
