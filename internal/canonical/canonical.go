// Package canonical produces a deterministic JSON form of a value and its
// SHA-256 fingerprint. Two structurally equal values always canonicalize to
// the same byte string regardless of key insertion order, host platform or
// process, which is what makes receipt hashes comparable over time.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Algorithm names the digest used for every fingerprint.
const Algorithm = "sha256"

// TailLength is how many trailing hex characters form the short,
// human-shareable verification code.
const TailLength = 10

// VerificationKey is the document key that carries a stored fingerprint.
// It is always stripped before hashing so the hash never covers itself.
const VerificationKey = "verification"

// Fingerprint is the stored verification record for a canonical document.
type Fingerprint struct {
	Algo string `json:"algo"`
	Hash string `json:"hash"`
	Tail string `json:"tail"`
}

// Canonicalize serializes v as compact JSON with object keys sorted
// lexicographically at every depth. Array order is preserved and numbers
// keep their minimal representation.
func Canonicalize(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}

	var b strings.Builder
	if err := writeCanonical(&b, tree); err != nil {
		return "", err
	}
	return b.String(), nil
}

// SHA256Hex returns the lowercase 64-character hex digest of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Tail returns the trailing TailLength characters of a hex digest.
func Tail(hash string) string {
	if len(hash) <= TailLength {
		return hash
	}
	return hash[len(hash)-TailLength:]
}

// Compute canonicalizes v and returns its fingerprint together with the
// canonical form that was hashed. Callers must pass the snapshot without
// its verification block; use StripVerification for decoded documents.
func Compute(v any) (Fingerprint, string, error) {
	form, err := Canonicalize(v)
	if err != nil {
		return Fingerprint{}, "", err
	}
	hash := SHA256Hex([]byte(form))
	return Fingerprint{
		Algo: Algorithm,
		Hash: hash,
		Tail: Tail(hash),
	}, form, nil
}

// StripVerification removes the stored fingerprint block from a decoded
// snapshot document before recomputation.
func StripVerification(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == VerificationKey {
			continue
		}
		out[k] = v
	}
	return out
}

func writeCanonical(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case json.Number:
		b.WriteString(val.String())
	case string:
		enc, err := json.Marshal(val)
		if err != nil {
			return err
		}
		b.Write(enc)
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			enc, err := json.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(enc)
			b.WriteByte(':')
			if err := writeCanonical(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("canonicalize: unsupported value %T", v)
	}
	return nil
}
