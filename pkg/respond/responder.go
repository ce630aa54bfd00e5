// Package respond produces localized crisis messaging and resource lists.
// It is stateless aside from reading a resource catalog, and it never fails
// a request: catalog errors degrade to a built-in baseline set.
package respond

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/text/language"

	"github.com/mindhaven/bastion/pkg/safety"
)

// Resource is one crisis support entry. Region is empty for global entries.
type Resource struct {
	Language     string `yaml:"language" json:"language"`
	Region       string `yaml:"region,omitempty" json:"region,omitempty"`
	Type         string `yaml:"type" json:"type"`
	Title        string `yaml:"title" json:"title"`
	Description  string `yaml:"description" json:"description"`
	Contact      string `yaml:"contact" json:"contact"`
	Availability string `yaml:"availability" json:"availability"`
	DisplayOrder int    `yaml:"display_order" json:"display_order"`
}

// Catalog supplies crisis resources for a language, regional and global
// entries together.
type Catalog interface {
	Resources(ctx context.Context, language string) ([]Resource, error)
}

// supportedTags lists the locales with culturally adapted crisis copy.
// English is first and therefore the fallback for unknown codes.
var supportedTags = []language.Tag{
	language.English,
	language.MustParse("ne"),
}

// Responder resolves language codes and assembles resource lists.
type Responder struct {
	catalog Catalog
	matcher language.Matcher
	log     *slog.Logger
}

// NewResponder builds a responder. catalog may be nil to serve only the
// built-in baseline; log may be nil.
func NewResponder(catalog Catalog, log *slog.Logger) *Responder {
	if log == nil {
		log = slog.Default()
	}
	return &Responder{
		catalog: catalog,
		matcher: language.NewMatcher(supportedTags),
		log:     log,
	}
}

const crisisMessageEN = "I'm really concerned about what you're going through " +
	"right now. You are not alone, and support is available immediately. " +
	"Please reach out right now to someone you trust, or contact a crisis " +
	"helpline; they are there for you at any hour."

const crisisMessageNE = "तपाईंले भोगिरहनुभएको पीडा सुनेर मलाई साँच्चै चिन्ता लाग्यो। " +
	"तपाईं एक्लै हुनुहुन्न, र सहयोग अहिले नै उपलब्ध छ। " +
	"कृपया आफूले विश्वास गर्ने व्यक्तिसँग कुरा गर्नुहोस्, वा संकट हेल्पलाइनमा अहिले नै सम्पर्क गर्नुहोस्। " +
	"उहाँहरू जुनसुकै समयमा तपाईंको साथमा हुनुहुन्छ।"

// CrisisMessage returns the supportive crisis message for a BCP 47 language
// code. Unknown or malformed codes fall back to English.
func (r *Responder) CrisisMessage(lang string) string {
	tag, _ := language.MatchStrings(r.matcher, lang)
	base, _ := tag.Base()
	switch base.String() {
	case "ne":
		return crisisMessageNE
	default:
		return crisisMessageEN
	}
}

// CrisisResources returns the ordered resource list for a crisis-grade risk
// level. Below HIGH it returns nil. Region-specific entries come before
// global ones; an empty catalog for the requested language falls back to
// English, and catalog errors degrade to the built-in baseline.
func (r *Responder) CrisisResources(ctx context.Context, level safety.RiskLevel, lang, region string) []Resource {
	if !level.Crisis() {
		return nil
	}

	tag, _ := language.MatchStrings(r.matcher, lang)
	base, _ := tag.Base()
	langCode := base.String()

	resources := r.lookup(ctx, langCode)
	if len(resources) == 0 && langCode != "en" {
		resources = r.lookup(ctx, "en")
	}
	if len(resources) == 0 {
		resources = baselineResources(langCode)
	}

	return orderForRegion(resources, region)
}

func (r *Responder) lookup(ctx context.Context, langCode string) []Resource {
	if r.catalog == nil {
		return nil
	}
	resources, err := r.catalog.Resources(ctx, langCode)
	if err != nil {
		r.log.Warn("resource catalog unavailable, serving baseline", "language", langCode, "error", err)
		return nil
	}
	return resources
}

// orderForRegion keeps entries matching the region plus global entries, with
// regional entries first and DisplayOrder deciding within each group. When
// no entry matches the region, all entries are returned.
func orderForRegion(resources []Resource, region string) []Resource {
	var regional, global []Resource
	for _, res := range resources {
		switch {
		case region != "" && res.Region == region:
			regional = append(regional, res)
		case res.Region == "":
			global = append(global, res)
		}
	}

	byOrder := func(list []Resource) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].DisplayOrder < list[j].DisplayOrder
		})
	}
	byOrder(regional)
	byOrder(global)

	if len(regional) == 0 && len(global) == 0 {
		// Every entry is for some other region; better than nothing
		out := make([]Resource, len(resources))
		copy(out, resources)
		byOrder(out)
		return out
	}
	return append(regional, global...)
}
