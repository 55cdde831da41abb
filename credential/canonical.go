package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/piprate/json-gold/ld"
	"github.com/sirupsen/logrus"

	"github.com/pilacorp/go-dpp-verifier/internal/logging"
)

// Canonicalizer serializes a JSON object deterministically for signing.
type Canonicalizer interface {
	Canonicalize(doc map[string]interface{}) ([]byte, error)
}

// JSONCanonicalizer writes compact JSON with sorted keys, escaping every
// non-ASCII character as \uXXXX. Fractional numbers use the shortest
// round-trip form, switching to exponent notation below 1e-4 and from 1e16
// up. Integral float64 values are written as integers, since that is how
// encoding/json decodes integer literals. json.Number values keep integer
// literals verbatim and format float literals like any other fraction.
type JSONCanonicalizer struct{}

// Canonicalize implements Canonicalizer.
func (JSONCanonicalizer) Canonicalize(doc map[string]interface{}) ([]byte, error) {
	normalized, err := normalizeNumbers(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	return escapeNonASCII(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// canonicalNumber is a pre-formatted JSON number.
type canonicalNumber string

func (n canonicalNumber) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

func normalizeNumbers(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			n, err := normalizeNumbers(val)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			n, err := normalizeNumbers(val)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case float64:
		return formatFloat64(t)
	case json.Number:
		if !strings.ContainsAny(string(t), ".eE") {
			return canonicalNumber(t), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return formatFraction(f)
	}

	return v, nil
}

func formatFloat64(f float64) (canonicalNumber, error) {
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return canonicalNumber(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}

	return formatFraction(f)
}

func formatFraction(f float64) (canonicalNumber, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("unsupported number %v", f)
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil {
		return "", err
	}
	if f != 0 && (exp < -4 || exp >= 16) {
		return canonicalNumber(sci), nil
	}

	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}

	return canonicalNumber(fixed), nil
}

func escapeNonASCII(data []byte) []byte {
	var out []byte
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			if out != nil {
				out = append(out, data[i])
			}
			i++
			continue
		}

		if out == nil {
			out = make([]byte, i, len(data)+16)
			copy(out, data[:i])
		}

		r, size := utf8.DecodeRune(data[i:])
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			out = fmt.Appendf(out, `\u%04x\u%04x`, hi, lo)
		} else {
			out = fmt.Appendf(out, `\u%04x`, r)
		}
		i += size
	}

	if out == nil {
		return data
	}

	return out
}

// RDFCanonicalizer produces URDNA2015 N-Quads. Documents that are not valid
// JSON-LD, or that produce no quads, fall back to JSONCanonicalizer.
type RDFCanonicalizer struct {
	loader   ld.DocumentLoader
	logger   *logrus.Entry
	fallback JSONCanonicalizer
}

// RDFOption configures an RDFCanonicalizer.
type RDFOption func(*RDFCanonicalizer)

// WithDocumentLoader sets the loader used to fetch remote JSON-LD contexts.
func WithDocumentLoader(loader ld.DocumentLoader) RDFOption {
	return func(c *RDFCanonicalizer) {
		if loader != nil {
			c.loader = loader
		}
	}
}

// NewRDFCanonicalizer creates an RDFCanonicalizer. Remote contexts are
// fetched over HTTP and cached unless a loader is given.
func NewRDFCanonicalizer(opts ...RDFOption) *RDFCanonicalizer {
	c := &RDFCanonicalizer{logger: logging.Component("canonicalizer")}
	for _, opt := range opts {
		opt(c)
	}
	if c.loader == nil {
		c.loader = ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(nil))
	}

	return c
}

// Canonicalize implements Canonicalizer.
func (c *RDFCanonicalizer) Canonicalize(doc map[string]interface{}) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("failed to canonicalize document: document is nil")
	}

	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	opts.Algorithm = ld.AlgorithmURDNA2015
	opts.DocumentLoader = c.loader

	normalized, err := ld.NewJsonLdProcessor().Normalize(doc, opts)
	if err != nil {
		c.logger.WithError(err).Debug("URDNA2015 failed, using JSON canonicalization")
		return c.fallback.Canonicalize(doc)
	}

	quads, ok := normalized.(string)
	if !ok || strings.TrimSpace(quads) == "" {
		c.logger.Debug("document produced no RDF, using JSON canonicalization")
		return c.fallback.Canonicalize(doc)
	}

	return []byte(quads), nil
}
