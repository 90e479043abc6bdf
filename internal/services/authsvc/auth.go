// Package authsvc implements ridge's authentication service (spec.md §6
// "Service ids" names "authentication" as a stable id; authentication
// policy itself is a non-goal of the CORE, so this is a SPEC_FULL.md
// domain-stack addition). Grounded directly on the teacher's
// internal/security/crypto.go: an Ed25519 node keypair, loaded from disk
// or generated on first run, used to sign and verify session tokens.
package authsvc

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
)

// Keypair holds ridge's Ed25519 signing identity.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// Service signs and verifies session authentication tokens.
type Service struct {
	dir string
	kp  *Keypair
}

// New constructs an authentication service whose keys live under dir.
func New(dir string) *Service {
	return &Service{dir: dir}
}

func (s *Service) Label() string { return "authentication" }
func (s *Service) ID() uint32    { return routing.ServiceIDAuthentication }

func (s *Service) Setup(*framework.Environment) error {
	kp, err := loadOrCreateKeypair(s.dir)
	if err != nil {
		return fmt.Errorf("authsvc: %w", err)
	}
	s.kp = kp
	return nil
}

func (s *Service) Start(*framework.Environment) error    { return nil }
func (s *Service) Shutdown(*framework.Environment) error { return nil }

// Sign returns a detached Ed25519 signature over message.
func (s *Service) Sign(message []byte) []byte {
	return ed25519.Sign(s.kp.Private, message)
}

// Verify checks a signature produced by Sign against this service's
// public key.
func (s *Service) Verify(message, signature []byte) bool {
	return ed25519.Verify(s.kp.Public, message, signature)
}

// Call treats the request payload as a message to sign and returns the
// raw signature bytes as the response body — the minimal authentication
// primitive a session-hello handshake needs.
func (s *Service) Call(req contract.Request, resp contract.Response) (bool, error) {
	return true, resp.Body(s.Sign(req.Payload()))
}

func loadOrCreateKeypair(dir string) (*Keypair, error) {
	keyDir := filepath.Join(dir, "keys")
	pubPath := filepath.Join(keyDir, "node.pub")
	privPath := filepath.Join(keyDir, "node.key")

	pubBytes, pubErr := os.ReadFile(pubPath)
	privBytes, privErr := os.ReadFile(privPath)
	if pubErr == nil && privErr == nil {
		pub, err := hex.DecodeString(string(pubBytes))
		if err != nil {
			return nil, fmt.Errorf("decode public key: %w", err)
		}
		priv, err := hex.DecodeString(string(privBytes))
		if err != nil {
			return nil, fmt.Errorf("decode private key: %w", err)
		}
		return &Keypair{Public: ed25519.PublicKey(pub), Private: ed25519.PrivateKey(priv)}, nil
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 keypair: %w", err)
	}
	if err := os.MkdirAll(keyDir, 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(pubPath, []byte(hex.EncodeToString(pub)), 0o644); err != nil {
		return nil, fmt.Errorf("write public key: %w", err)
	}
	if err := os.WriteFile(privPath, []byte(hex.EncodeToString(priv)), 0o600); err != nil {
		return nil, fmt.Errorf("write private key: %w", err)
	}
	return &Keypair{Public: pub, Private: priv}, nil
}
