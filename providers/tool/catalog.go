package tool

import (
	"sort"
	"strings"
	"sync"

	"github.com/leofalp/crewgraph/providers/ai"
)

// Catalog is a thread-safe registry of tools keyed by lowercase name.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
}

// NewCatalog creates a catalog pre-populated with tools.
func NewCatalog(tools ...GenericTool) *Catalog {
	catalog := &Catalog{tools: make(map[string]GenericTool)}
	catalog.AddTools(tools...)
	return catalog
}

// AddTools registers tools, replacing any tool with the same name. Nil tools are skipped.
func (c *Catalog) AddTools(tools ...GenericTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		if t == nil {
			continue
		}
		c.tools[strings.ToLower(t.ToolInfo().Name)] = t
	}
}

// Get retrieves a tool by name (case-insensitive).
func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	found, exists := c.tools[strings.ToLower(name)]
	return found, exists
}

// Size returns the number of tools in the catalog.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// Descriptions returns the advertised descriptions sorted by name, so requests
// built from the same catalog are byte-identical.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	descriptions := make([]ai.ToolDescription, 0, len(names))
	for _, name := range names {
		descriptions = append(descriptions, c.tools[name].ToolInfo())
	}
	return descriptions
}
