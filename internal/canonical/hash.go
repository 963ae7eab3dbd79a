package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/optsql/internal/queryopt"
)

// Domain prefixes for fingerprints. The version suffix allows changing the
// algorithm without colliding with stored values.
const (
	DomainQuery   = "optsql/query/v1"
	DomainSources = "optsql/sources/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryFingerprint identifies a query option by content. Two options that
// encode to the same canonical JSON share a fingerprint.
func QueryFingerprint(q queryopt.QueryOption) (string, error) {
	data, err := Marshal(q)
	if err != nil {
		return "", fmt.Errorf("QueryFingerprint: %w", err)
	}
	return hashWithDomain(DomainQuery, data), nil
}

// SourcesFingerprint identifies a source list by content. Order matters,
// since the first source with a given id wins during compilation.
func SourcesFingerprint(sources []queryopt.Source) (string, error) {
	if sources == nil {
		sources = []queryopt.Source{}
	}
	data, err := Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("SourcesFingerprint: %w", err)
	}
	return hashWithDomain(DomainSources, data), nil
}

// MustQueryFingerprint is like QueryFingerprint but panics on error.
// Use only in tests or when the option is known to encode.
func MustQueryFingerprint(q queryopt.QueryOption) string {
	fp, err := QueryFingerprint(q)
	if err != nil {
		panic(err)
	}
	return fp
}
