// Package credstore provides credential lookup implementations for the
// hawk.CredentialsLookupFunc collaborator.
//
// Static serves credentials from an in-memory map; LoadFile reads them
// from a YAML file of the form:
//
//	credentials:
//	  dh37fgj492je:
//	    key: werxhqb98rpaxn39848xrunpaw3489ruxnpaw3489ruxnpaw3489ruxnpaw389
//	    algorithm: sha256
package credstore

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vitalvas/hawk"
)

// Static is an immutable in-memory credential store. Safe for concurrent
// use; its Lookup method satisfies hawk.CredentialsLookupFunc.
type Static struct {
	creds map[string]hawk.Credential
}

// NewStatic builds a store from key ID to credential. Entries whose ID
// field is empty receive the map key as their ID.
func NewStatic(creds map[string]hawk.Credential) *Static {
	cloned := make(map[string]hawk.Credential, len(creds))

	for id, cred := range creds {
		if cred.ID == "" {
			cred.ID = id
		}

		cloned[id] = cred
	}

	return &Static{creds: cloned}
}

// Lookup implements hawk.CredentialsLookupFunc.
func (s *Static) Lookup(_ context.Context, keyID string) (*hawk.Credential, error) {
	cred, ok := s.creds[keyID]
	if !ok {
		return nil, hawk.ErrUnknownCredential
	}

	return &cred, nil
}

// Len reports the number of stored credentials.
func (s *Static) Len() int {
	return len(s.creds)
}

type credentialFile struct {
	Credentials map[string]credentialRecord `yaml:"credentials"`
}

type credentialRecord struct {
	Key       string `yaml:"key"`
	Algorithm string `yaml:"algorithm"`
}

// LoadFile reads a YAML credential file into a Static store. Every
// record must carry a non-empty key and a supported algorithm.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("credstore: read %s: %w", path, err)
	}

	return Parse(data)
}

// Parse builds a Static store from YAML credential data.
func Parse(data []byte) (*Static, error) {
	var file credentialFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("credstore: parse credentials: %w", err)
	}

	creds := make(map[string]hawk.Credential, len(file.Credentials))

	for id, record := range file.Credentials {
		if record.Key == "" {
			return nil, fmt.Errorf("credstore: credential %q: %w", id, hawk.ErrInvalidCredential)
		}

		alg := hawk.Algorithm(record.Algorithm)
		if !alg.Valid() {
			return nil, fmt.Errorf("credstore: credential %q: %w: %q", id, hawk.ErrUnsupportedAlgorithm, record.Algorithm)
		}

		creds[id] = hawk.Credential{
			ID:        id,
			Key:       []byte(record.Key),
			Algorithm: alg,
		}
	}

	return NewStatic(creds), nil
}
