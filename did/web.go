package did

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pilacorp/go-dpp-verifier/common/model"
)

const (
	defaultPath  = "/.well-known/did.json"
	documentPath = "/did.json"
)

// WebDocumentURL returns the HTTPS location of a did:web document.
//
//	did:web:example.com             -> https://example.com/.well-known/did.json
//	did:web:example.com%3A8443      -> https://example.com:8443/.well-known/did.json
//	did:web:example.com:user:alice  -> https://example.com/user/alice/did.json
func WebDocumentURL(did string) (string, error) {
	method, methodID, err := splitDID(did)
	if err != nil {
		return "", err
	}
	if method != "web" {
		return "", fmt.Errorf("%w: %s is not did:web", ErrUnsupportedMethod, did)
	}

	return webDocumentURL(methodID)
}

func webDocumentURL(methodID string) (string, error) {
	pathComponents := strings.Split(methodID, ":")
	for _, c := range pathComponents {
		if c == "" {
			return "", fmt.Errorf("%w: empty did:web path component", ErrInvalidDID)
		}
	}

	host, err := url.PathUnescape(pathComponents[0])
	if err != nil {
		return "", fmt.Errorf("%w: error parsing did:web host: %v", ErrInvalidDID, err)
	}
	if strings.ContainsAny(host, "/?#@") {
		return "", fmt.Errorf("%w: invalid did:web host %q", ErrInvalidDID, host)
	}

	var address string
	if len(pathComponents) == 1 {
		address = "https://" + host + defaultPath
	} else {
		address = "https://" + host + "/" + strings.Join(pathComponents[1:], "/") + documentPath
	}

	parsed, err := url.Parse(address)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: invalid did:web address %q", ErrInvalidDID, address)
	}

	return address, nil
}

// resolveWeb fetches and parses a did:web document.
func (r *Resolver) resolveWeb(ctx context.Context, did, methodID string) (*model.DIDDocument, error) {
	address, err := webDocumentURL(methodID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDID, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.opts.userAgent != "" {
		req.Header.Set("User-Agent", r.opts.userAgent)
	}

	resp, err := r.opts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to make HTTP request to %s: %v", ErrUpstream, address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("%w: %s returned %s", ErrNotFound, address, resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned non-2xx status: %s", ErrUpstream, address, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.opts.maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body from %s: %v", ErrUpstream, address, err)
	}
	if int64(len(body)) > r.opts.maxDocumentBytes {
		return nil, fmt.Errorf("%w: document at %s exceeds %d bytes", ErrDecode, address, r.opts.maxDocumentBytes)
	}

	if r.opts.validate {
		if err := validateDocument(body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}

	doc, err := model.ParseDIDDocument(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if doc.ID != did {
		r.opts.logger.WithField("did", did).WithField("document_id", doc.ID).Warn("did:web document id does not match the requested DID")
	}

	r.deriveKeys(doc)

	return doc, nil
}
