package requiredby

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matzehuels/pipinfo/pkg/metadata"
)

func pkg(name string, requires metadata.Conditions, extras metadata.Extras) *metadata.Package {
	if requires == nil {
		requires = metadata.Conditions{}
	}
	if extras == nil {
		extras = metadata.Extras{}
	}
	return &metadata.Package{Name: name, Requires: requires, Extras: extras}
}

var policies = []Policy{DedupByTarget, DedupByActivation}

func TestBuild_Direct(t *testing.T) {
	pkgs := []*metadata.Package{
		pkg("requests", metadata.Conditions{"idna": "(<4)", "urllib3": "", "certifi": ""}, nil),
		pkg("httpx", metadata.Conditions{"idna": "", "certifi": ""}, nil),
		pkg("idna", nil, nil),
	}

	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			ix := Build(pkgs, Options{Policy: policy})
			assert.Equal(t, []string{"requests", "httpx"}, ix["idna"])
			assert.Equal(t, []string{"requests"}, ix["urllib3"])
			assert.True(t, ix.IsRequired("IDNA"))
			assert.False(t, ix.IsRequired("requests"))
			assert.Equal(t, []string{"certifi", "idna", "urllib3"}, ix.Names())
		})
	}
}

func TestBuild_EveryRequirementIsIndexed(t *testing.T) {
	pkgs := []*metadata.Package{
		pkg("Flask", metadata.Conditions{"Werkzeug": ">=3", "Jinja2": "", "click[colors]": ""}, nil),
		pkg("Jinja2", metadata.Conditions{"MarkupSafe": ">=2.0"}, nil),
	}
	ix := Build(pkgs, Options{})

	for _, p := range pkgs {
		for dep := range p.Requires {
			name := metadata.NormalizeName(metadata.ParseRequirement(dep).Name)
			assert.Contains(t, ix[name], metadata.NormalizeName(p.Name), "%s -> %s", p.Name, dep)
		}
	}
}

func TestBuild_ExtraTransitivity(t *testing.T) {
	pkgs := []*metadata.Package{
		pkg("A", metadata.Conditions{"B[x]": ""}, nil),
		pkg("B", nil, metadata.Extras{"x": {"C": ""}}),
	}

	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			ix := Build(pkgs, Options{Policy: policy})
			assert.Equal(t, []string{"a"}, ix["b"])
			assert.Equal(t, []string{"a"}, ix["c"])
		})
	}
}

func TestBuild_CaseInsensitive(t *testing.T) {
	pkgs := []*metadata.Package{
		pkg("App", metadata.Conditions{"Lib": "", "lib": ">=1"}, nil),
		pkg("lib", nil, nil),
	}
	ix := Build(pkgs, Options{})

	assert.Equal(t, []string{"app"}, ix["lib"])
	assert.Equal(t, []string{"app"}, ix.RequiredBy("LIB"))
}

func TestBuild_ChainedExtras(t *testing.T) {
	pkgs := []*metadata.Package{
		pkg("a", metadata.Conditions{"b[x]": ""}, nil),
		pkg("b", nil, metadata.Extras{"x": {"c[y]": ""}, "unused": {"nope": ""}}),
		pkg("c", nil, metadata.Extras{"Y": {"d": ""}}),
	}

	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			ix := Build(pkgs, Options{Policy: policy})
			assert.Equal(t, []string{"a"}, ix["c"])
			assert.Equal(t, []string{"a"}, ix["d"])
			assert.NotContains(t, ix, "nope")
		})
	}
}

func TestBuild_MissingTarget(t *testing.T) {
	pkgs := []*metadata.Package{
		pkg("a", metadata.Conditions{"ghost[extra]": ""}, nil),
	}
	ix := Build(pkgs, Options{})
	assert.Equal(t, Index{"ghost": {"a"}}, ix)
}

func TestBuild_CycleTerminates(t *testing.T) {
	pkgs := []*metadata.Package{
		pkg("a", metadata.Conditions{"b[x]": ""}, metadata.Extras{"y": {"b[x]": ""}}),
		pkg("b", nil, metadata.Extras{"x": {"a[y]": ""}}),
	}

	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			ix := Build(pkgs, Options{Policy: policy})
			assert.Equal(t, []string{"a"}, ix["a"])
			assert.Equal(t, []string{"a"}, ix["b"])
		})
	}
}

func TestBuild_PolicyDifference(t *testing.T) {
	pkgs := []*metadata.Package{
		pkg("a", metadata.Conditions{"b[x]": ""}, nil),
		pkg("b", nil, metadata.Extras{"x": {"xdep": ""}, "y": {"ydep": ""}}),
		pkg("c", metadata.Conditions{"b[y]": ""}, nil),
	}

	shallow := Build(pkgs, Options{Policy: DedupByTarget})
	assert.Equal(t, []string{"c"}, shallow["ydep"])
	assert.NotContains(t, shallow, "xdep", "the later activation of b replaces the earlier one")

	full := Build(pkgs, Options{Policy: DedupByActivation})
	assert.Equal(t, []string{"a"}, full["xdep"])
	assert.Equal(t, []string{"c"}, full["ydep"])
}

func TestBuild_DuplicateInstalls(t *testing.T) {
	pkgs := []*metadata.Package{
		pkg("a", metadata.Conditions{"b[x]": ""}, nil),
		pkg("b", nil, metadata.Extras{"x": {"old": ""}}),
		pkg("B", nil, metadata.Extras{"x": {"new": ""}}),
	}
	ix := Build(pkgs, Options{})
	assert.Equal(t, []string{"a"}, ix["old"])
	assert.Equal(t, []string{"a"}, ix["new"])
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(nil, Options{}))
}
