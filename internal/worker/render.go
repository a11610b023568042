package worker

import (
	"regexp"
	"strconv"

	"github.com/trellisdata/trellis/internal/domain"
)

// placeholderPattern matches {{name}} tokens in catalog templates.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// RenderTemplate substitutes {{name}} placeholders in template from values.
// Placeholders with no matching value are left verbatim: an unresolved
// token is a template authoring concern, not a processing error.
func RenderTemplate(template string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

// TemplateValues builds the substitution map for one instance: every
// occupation attribute by its own name, plus the well-known entity and
// region fields. Attribute names never shadow the built-ins.
func TemplateValues(occ *domain.Occupation, region *domain.Region) map[string]string {
	values := make(map[string]string, len(occ.Attributes)+6)
	for k, v := range occ.Attributes {
		values[k] = v
	}
	values["occupation_id"] = strconv.FormatInt(occ.ID, 10)
	values["occupation_code"] = occ.Code
	values["occupation_name"] = occ.Name
	values["region_id"] = strconv.FormatInt(region.ID, 10)
	values["region_code"] = region.Code
	values["region_name"] = region.Name
	return values
}
