package uppaalxml

import (
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/tamatch/tamatch/internal/modelio"
)

// TestModel_GoldenFixtures renders every case bundled in
// testdata/golden.txtar and checks the output contains each of the
// substrings listed in that case's want.txt. Bundling many small
// model/expectation pairs into one txtar archive keeps the fixture count
// down to one file to update instead of one directory per case.
func TestModel_GoldenFixtures(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/golden.txtar")
	if err != nil {
		t.Fatalf("parsing golden.txtar: %v", err)
	}

	cases := map[string]struct {
		modelYAML []byte
		want      []byte
	}{}
	for _, f := range ar.Files {
		name, kind, ok := strings.Cut(f.Name, "/")
		if !ok {
			t.Fatalf("unexpected txtar entry %q: want <case>/<file>", f.Name)
		}
		c := cases[name]
		switch kind {
		case "model.yaml":
			c.modelYAML = f.Data
		case "want.txt":
			c.want = f.Data
		default:
			t.Fatalf("unexpected txtar file %q in case %q", kind, name)
		}
		cases[name] = c
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			desc, err := modelio.Parse(c.modelYAML)
			if err != nil {
				t.Fatalf("parsing descriptor: %v", err)
			}
			sys, err := modelio.Build(desc)
			if err != nil {
				t.Fatalf("building model: %v", err)
			}
			out, err := Model(sys)
			if err != nil {
				t.Fatalf("rendering model: %v", err)
			}
			for _, want := range strings.Split(strings.TrimRight(string(c.want), "\n"), "\n") {
				if want == "" {
					continue
				}
				if !strings.Contains(out, want) {
					t.Errorf("expected rendered XML to contain %q, got:\n%s", want, out)
				}
			}
		})
	}
}
