package worker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/worker"
)

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		values   map[string]string
		want     string
	}{
		{
			name:     "substitutes known placeholders",
			template: "Analyze {{occupation_name}} in {{region_name}}.",
			values: map[string]string{
				"occupation_name": "Electrician",
				"region_name":     "Bavaria",
			},
			want: "Analyze Electrician in Bavaria.",
		},
		{
			name:     "tolerates whitespace inside braces",
			template: "{{ occupation_name }} / {{  region_code  }}",
			values: map[string]string{
				"occupation_name": "Plumber",
				"region_code":     "DE-BY",
			},
			want: "Plumber / DE-BY",
		},
		{
			name:     "leaves unresolved placeholders verbatim",
			template: "{{occupation_name}} needs {{unknown_field}}.",
			values:   map[string]string{"occupation_name": "Baker"},
			want:     "Baker needs {{unknown_field}}.",
		},
		{
			name:     "same placeholder repeated",
			template: "{{code}} and again {{code}}",
			values:   map[string]string{"code": "X1"},
			want:     "X1 and again X1",
		},
		{
			name:     "no placeholders",
			template: "static text",
			values:   map[string]string{"code": "X1"},
			want:     "static text",
		},
		{
			name:     "empty template",
			template: "",
			values:   map[string]string{"code": "X1"},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := worker.RenderTemplate(tt.template, tt.values)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateValues(t *testing.T) {
	t.Parallel()

	occ := &domain.Occupation{
		ID:   42,
		Code: "7411",
		Name: "Electrician",
		Attributes: map[string]string{
			"skill_level": "3",
			"sector":      "construction",
		},
	}
	region := &domain.Region{ID: 7, Code: "DE-BY", Name: "Bavaria"}

	values := worker.TemplateValues(occ, region)

	assert.Equal(t, "3", values["skill_level"])
	assert.Equal(t, "construction", values["sector"])
	assert.Equal(t, "42", values["occupation_id"])
	assert.Equal(t, "7411", values["occupation_code"])
	assert.Equal(t, "Electrician", values["occupation_name"])
	assert.Equal(t, "7", values["region_id"])
	assert.Equal(t, "DE-BY", values["region_code"])
	assert.Equal(t, "Bavaria", values["region_name"])
}

func TestTemplateValuesBuiltInsWinOverAttributes(t *testing.T) {
	t.Parallel()

	occ := &domain.Occupation{
		ID:   1,
		Code: "real-code",
		Name: "Real Name",
		Attributes: map[string]string{
			"occupation_code": "shadowed",
			"occupation_name": "shadowed",
		},
	}
	region := &domain.Region{ID: 2, Code: "R", Name: "Region"}

	values := worker.TemplateValues(occ, region)

	assert.Equal(t, "real-code", values["occupation_code"])
	assert.Equal(t, "Real Name", values["occupation_name"])
}
