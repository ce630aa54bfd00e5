package respond

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML document shape for a file-backed catalog.
type catalogFile struct {
	Resources []Resource `yaml:"resources"`
}

// FileCatalog serves crisis resources from a YAML file loaded once at
// startup. Operators edit the file and restart to change the set.
type FileCatalog struct {
	byLanguage map[string][]Resource
}

// LoadFileCatalog parses the YAML resource file at path.
func LoadFileCatalog(path string) (*FileCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("respond: read catalog: %w", err)
	}

	var doc catalogFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("respond: parse catalog: %w", err)
	}

	c := &FileCatalog{byLanguage: make(map[string][]Resource)}
	for _, res := range doc.Resources {
		lang := strings.ToLower(strings.TrimSpace(res.Language))
		if lang == "" || res.Title == "" {
			return nil, fmt.Errorf("respond: catalog entry %q missing language or title", res.Title)
		}
		res.Language = lang
		c.byLanguage[lang] = append(c.byLanguage[lang], res)
	}
	return c, nil
}

// Resources returns all entries for a language, regional and global alike.
func (c *FileCatalog) Resources(_ context.Context, language string) ([]Resource, error) {
	entries := c.byLanguage[strings.ToLower(language)]
	out := make([]Resource, len(entries))
	copy(out, entries)
	return out, nil
}

// Languages lists the language codes the catalog covers.
func (c *FileCatalog) Languages() []string {
	langs := make([]string, 0, len(c.byLanguage))
	for lang := range c.byLanguage {
		langs = append(langs, lang)
	}
	return langs
}
