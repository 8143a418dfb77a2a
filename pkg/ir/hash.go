package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainRecord = "ecldeck/record/v1"
	DomainState  = "ecldeck/state/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes a domain-separated digest of v's canonical JSON.
func Digest(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// RecordDigest computes the content digest of a single record.
// Position and deck index are excluded: two occurrences with the same name
// and values have the same digest.
func RecordDigest(rec KeywordRecord) (string, error) {
	obj := map[string]any{
		"name": rec.Name,
		"kind": string(rec.Kind),
	}
	if rec.Values != nil {
		obj["values"] = rec.Values
	}
	return Digest(DomainRecord, obj)
}
