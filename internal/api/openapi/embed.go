// Package openapi embeds the ledger's HTTP contract.
//
// Import Path: seatledger.io/ledger/internal/api/openapi
package openapi

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var contract []byte

var (
	loadOnce sync.Once
	loaded   *openapi3.T
	loadErr  error
)

// Raw returns the contract document as YAML.
func Raw() []byte {
	return contract
}

// Load parses and validates the contract once.
func Load() (*openapi3.T, error) {
	loadOnce.Do(func() {
		doc, err := openapi3.NewLoader().LoadFromData(contract)
		if err != nil {
			loadErr = fmt.Errorf("parse openapi document: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			loadErr = fmt.Errorf("validate openapi document: %w", err)
			return
		}
		loaded = doc
	})
	return loaded, loadErr
}
