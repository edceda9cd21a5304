package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"
)

var ErrCatalogUnavailable = errors.New("tool catalog unavailable")

// Lister is the listing half of the tool-invocation channel.
type Lister interface {
	ListTools(ctx context.Context) ([]ToolSpec, error)
}

// Catalog fetches the server's tool list once and keeps it for the life of the process.
// A failed fetch is not cached: an unreachable server is not the same as a server with no tools.
type Catalog struct {
	lister  Lister
	mu      sync.Mutex
	fetched bool
	specs   []ToolSpec
}

func NewCatalog(lister Lister) *Catalog {
	return &Catalog{lister: lister}
}

// Tools returns the cached listing, fetching it on first use.
func (c *Catalog) Tools(ctx context.Context) ([]ToolSpec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetched {
		return c.specs, nil
	}

	specs, err := c.lister.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	c.specs = specs
	c.fetched = true
	return c.specs, nil
}

// FunctionSchemas returns the listing in completion-API form.
func (c *Catalog) FunctionSchemas(ctx context.Context) ([]openai.Tool, error) {
	specs, err := c.Tools(ctx)
	if err != nil {
		return nil, err
	}

	schemas := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		schemas = append(schemas, ToFunctionSchema(spec))
	}
	return schemas, nil
}

// Names lists the cached tool names; empty until the first successful fetch.
func (c *Catalog) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.specs))
	for _, spec := range c.specs {
		names = append(names, spec.Name)
	}
	return names
}
