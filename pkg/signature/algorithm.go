package signature

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"
)

// Algorithm 签名摘要算法
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "sha1"
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmSHA384 Algorithm = "sha384"
	AlgorithmSHA512 Algorithm = "sha512"
)

// DefaultAlgorithm is used when none is configured.
const DefaultAlgorithm = AlgorithmSHA256

var hashes = map[Algorithm]func() hash.Hash{
	AlgorithmSHA1:   sha1.New,
	AlgorithmSHA256: sha256.New,
	AlgorithmSHA384: sha512.New384,
	AlgorithmSHA512: sha512.New,
}

// ParseAlgorithm resolves a configured algorithm name. An empty name yields
// DefaultAlgorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return DefaultAlgorithm, nil
	}
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if !alg.Supported() {
		return "", fmt.Errorf("unsupported signature algorithm: %s", name)
	}
	return alg, nil
}

// Supported reports whether a names a known digest.
func (a Algorithm) Supported() bool {
	_, ok := hashes[a]
	return ok
}

func (a Algorithm) hash() func() hash.Hash {
	if h, ok := hashes[a]; ok {
		return h
	}
	return hashes[DefaultAlgorithm]
}
