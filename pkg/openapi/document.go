// Package openapi reads the subset of an OpenAPI 3 document the gateway needs:
// operation ids, path templates, and the response schemas reachable from them.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Document struct {
	OpenAPI    string              `yaml:"openapi"`
	Info       Info                `yaml:"info"`
	Paths      map[string]PathItem `yaml:"paths"`
	Components Components          `yaml:"components"`
}

type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

type PathItem struct {
	Get     *Operation `yaml:"get"`
	Put     *Operation `yaml:"put"`
	Post    *Operation `yaml:"post"`
	Delete  *Operation `yaml:"delete"`
	Options *Operation `yaml:"options"`
	Head    *Operation `yaml:"head"`
	Patch   *Operation `yaml:"patch"`
}

// Operations returns the operations of a path item keyed by upper-case method.
func (p PathItem) Operations() map[string]*Operation {
	out := map[string]*Operation{}
	for method, op := range map[string]*Operation{
		http.MethodGet:     p.Get,
		http.MethodPut:     p.Put,
		http.MethodPost:    p.Post,
		http.MethodDelete:  p.Delete,
		http.MethodOptions: p.Options,
		http.MethodHead:    p.Head,
		http.MethodPatch:   p.Patch,
	} {
		if op != nil {
			out[method] = op
		}
	}
	return out
}

type Operation struct {
	OperationID string              `yaml:"operationId"`
	Summary     string              `yaml:"summary"`
	Responses   map[string]Response `yaml:"responses"`
}

type Response struct {
	Ref         string               `yaml:"$ref"`
	Description string               `yaml:"description"`
	Content     map[string]MediaType `yaml:"content"`
}

type MediaType struct {
	Schema *Schema `yaml:"schema"`
}

type Components struct {
	Schemas   map[string]*Schema  `yaml:"schemas"`
	Responses map[string]Response `yaml:"responses"`
}

// Schema keeps only what is needed to walk instances: references, object
// properties, array items and single-reference compositions.
type Schema struct {
	Ref        string             `yaml:"$ref"`
	Type       any                `yaml:"type"`
	Properties map[string]*Schema `yaml:"properties"`
	Items      *Schema            `yaml:"items"`
	AllOf      []*Schema          `yaml:"allOf"`
	OneOf      []*Schema          `yaml:"oneOf"`
	AnyOf      []*Schema          `yaml:"anyOf"`
}

// Parse decodes a JSON or YAML OpenAPI document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if len(doc.Paths) == 0 {
		return nil, errors.New("parse openapi document: no paths")
	}
	return &doc, nil
}

func LoadFile(path string) (*Document, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("openapi file path is empty")
	}
	// #nosec G304 -- document path comes from trusted config.
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read openapi file %q: %w", p, err)
	}
	return Parse(b)
}

// Fetch downloads the document from a running service.
func Fetch(ctx context.Context, client *http.Client, url string) (*Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build openapi request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch openapi document %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch openapi document %s: unexpected status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read openapi document %s: %w", url, err)
	}
	return Parse(b)
}

// Load reads the document from a URL (http/https) or a local file.
func Load(ctx context.Context, client *http.Client, source string) (*Document, error) {
	src := strings.TrimSpace(source)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return Fetch(ctx, client, src)
	}
	return LoadFile(src)
}
