package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
)

// Code issuer defaults.
const (
	DefaultMaxCodesPerEvent = 100
	DefaultCodeBytes        = 8
	DefaultMintAttempts     = 16
)

// CodeGenerator produces one candidate code.
type CodeGenerator func() (string, error)

// RandomHexGenerator returns a generator of n random bytes, hex encoded.
func RandomHexGenerator(n int) CodeGenerator {
	return func() (string, error) {
		buf := make([]byte, n)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		return hex.EncodeToString(buf), nil
	}
}

// CodeIssuerConfig bounds code minting.
type CodeIssuerConfig struct {
	MaxCodesPerEvent int
	CodeBytes        int
	MintAttempts     int
}

// DefaultCodeIssuerConfig returns the default limits.
func DefaultCodeIssuerConfig() CodeIssuerConfig {
	return CodeIssuerConfig{
		MaxCodesPerEvent: DefaultMaxCodesPerEvent,
		CodeBytes:        DefaultCodeBytes,
		MintAttempts:     DefaultMintAttempts,
	}
}

// CodeIssuer mints one-time codes into an event's ledger.
type CodeIssuer struct {
	cfg      CodeIssuerConfig
	generate CodeGenerator
}

// CodeIssuerOption customizes a CodeIssuer.
type CodeIssuerOption func(*CodeIssuer)

// WithCodeGenerator replaces the random generator.
func WithCodeGenerator(gen CodeGenerator) CodeIssuerOption {
	return func(i *CodeIssuer) {
		i.generate = gen
	}
}

// NewCodeIssuer creates a CodeIssuer. Non-positive limits fall back to defaults.
func NewCodeIssuer(cfg CodeIssuerConfig, opts ...CodeIssuerOption) *CodeIssuer {
	def := DefaultCodeIssuerConfig()
	if cfg.MaxCodesPerEvent <= 0 {
		cfg.MaxCodesPerEvent = def.MaxCodesPerEvent
	}
	if cfg.CodeBytes <= 0 {
		cfg.CodeBytes = def.CodeBytes
	}
	if cfg.MintAttempts <= 0 {
		cfg.MintAttempts = def.MintAttempts
	}
	i := &CodeIssuer{cfg: cfg, generate: RandomHexGenerator(cfg.CodeBytes)}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Mint appends a fresh code to event's ledger and returns it.
// event is left untouched on error.
func (i *CodeIssuer) Mint(event *domain.Event) (string, error) {
	if len(event.Ledger.IssuedCodes) >= i.cfg.MaxCodesPerEvent {
		return "", apperrors.InvalidPayload(apperrors.CodeMaxCodesReached, "maximum number of codes reached").
			WithParams(map[string]interface{}{"event_id": event.ID, "max": i.cfg.MaxCodesPerEvent})
	}

	for attempt := 0; attempt < i.cfg.MintAttempts; attempt++ {
		code, err := i.generate()
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeCodeGenFailed, "could not generate code", http.StatusInternalServerError)
		}
		if code == "" || event.Ledger.Contains(code) {
			continue
		}
		event.Ledger.IssuedCodes = append(event.Ledger.IssuedCodes, code)
		event.Ledger.TotalIssued = len(event.Ledger.IssuedCodes)
		return code, nil
	}

	return "", apperrors.InvalidPayload(apperrors.CodeCodeMintExhausted, "could not mint a unique code").
		WithParams(map[string]interface{}{"event_id": event.ID, "attempts": i.cfg.MintAttempts})
}

// Count returns the number of codes minted for event.
func (i *CodeIssuer) Count(event *domain.Event) int {
	return event.Ledger.TotalIssued
}

// MaxCodesPerEvent returns the configured ceiling.
func (i *CodeIssuer) MaxCodesPerEvent() int {
	return i.cfg.MaxCodesPerEvent
}
