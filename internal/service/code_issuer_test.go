package service

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
)

func emptyEvent() *domain.Event {
	return &domain.Event{ID: "e1", Owner: "alice", Ledger: domain.CodeLedger{IssuedCodes: []string{}}}
}

func sequenceGenerator(codes ...string) CodeGenerator {
	i := 0
	return func() (string, error) {
		if i >= len(codes) {
			return "", errors.New("sequence exhausted")
		}
		c := codes[i]
		i++
		return c, nil
	}
}

func TestCodeIssuer_MintsDistinctCodes(t *testing.T) {
	t.Parallel()

	issuer := NewCodeIssuer(DefaultCodeIssuerConfig())
	ev := emptyEvent()
	hexCode := regexp.MustCompile(`^[0-9a-f]{16}$`)

	seen := make(map[string]struct{})
	for i := 0; i < DefaultMaxCodesPerEvent; i++ {
		code, err := issuer.Mint(ev)
		require.NoError(t, err)
		assert.Regexp(t, hexCode, code)
		_, dup := seen[code]
		require.False(t, dup, "code %s minted twice", code)
		seen[code] = struct{}{}
	}

	assert.Equal(t, DefaultMaxCodesPerEvent, issuer.Count(ev))
	assert.Len(t, ev.Ledger.IssuedCodes, DefaultMaxCodesPerEvent)
	assert.NoError(t, ev.CheckInvariants())
}

func TestCodeIssuer_CeilingReached(t *testing.T) {
	t.Parallel()

	issuer := NewCodeIssuer(CodeIssuerConfig{MaxCodesPerEvent: 2})
	ev := emptyEvent()
	_, err := issuer.Mint(ev)
	require.NoError(t, err)
	_, err = issuer.Mint(ev)
	require.NoError(t, err)

	_, err = issuer.Mint(ev)
	require.ErrorIs(t, err, apperrors.ErrInvalidPayload)
	appErr, _ := apperrors.IsAppError(err)
	assert.Equal(t, apperrors.CodeMaxCodesReached, appErr.Code)
	assert.Equal(t, 2, ev.Ledger.TotalIssued)
	assert.Equal(t, 2, issuer.MaxCodesPerEvent())
}

func TestCodeIssuer_RetriesCollisions(t *testing.T) {
	t.Parallel()

	issuer := NewCodeIssuer(DefaultCodeIssuerConfig(), WithCodeGenerator(sequenceGenerator("aaa", "aaa", "", "bbb")))
	ev := emptyEvent()

	first, err := issuer.Mint(ev)
	require.NoError(t, err)
	assert.Equal(t, "aaa", first)

	second, err := issuer.Mint(ev)
	require.NoError(t, err)
	assert.Equal(t, "bbb", second)
	assert.Equal(t, []string{"aaa", "bbb"}, ev.Ledger.IssuedCodes)
}

func TestCodeIssuer_FailsClosedWhenAttemptsExhausted(t *testing.T) {
	t.Parallel()

	issuer := NewCodeIssuer(CodeIssuerConfig{MintAttempts: 3},
		WithCodeGenerator(func() (string, error) { return "same", nil }))
	ev := emptyEvent()

	_, err := issuer.Mint(ev)
	require.NoError(t, err)

	_, err = issuer.Mint(ev)
	require.ErrorIs(t, err, apperrors.ErrInvalidPayload)
	appErr, _ := apperrors.IsAppError(err)
	assert.Equal(t, apperrors.CodeCodeMintExhausted, appErr.Code)
	assert.Equal(t, []string{"same"}, ev.Ledger.IssuedCodes)
}

func TestCodeIssuer_GeneratorError(t *testing.T) {
	t.Parallel()

	issuer := NewCodeIssuer(DefaultCodeIssuerConfig(),
		WithCodeGenerator(func() (string, error) { return "", fmt.Errorf("entropy unavailable") }))
	ev := emptyEvent()

	_, err := issuer.Mint(ev)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	assert.Empty(t, ev.Ledger.IssuedCodes)
}

func TestRandomHexGenerator_Length(t *testing.T) {
	t.Parallel()

	code, err := RandomHexGenerator(3)()
	require.NoError(t, err)
	assert.Len(t, code, 6)
}
