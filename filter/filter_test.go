package filter

import (
	"testing"

	"github.com/benoitkugler/okmap/geom"
)

func feature(props map[string]interface{}) *geom.Feature {
	f := geom.NewFeature(0)
	for k, v := range props {
		f.Set(k, v)
	}
	return f
}

func TestTranslate(t *testing.T) {
	for _, test := range []struct {
		in, out string
	}{
		{"[STATE] = 'California'", `$env["STATE"] == 'California'`},
		{"[STATE] <> 'California'", `$env["STATE"] != 'California'`},
		{"[POP] >= 10 and [POP] <= 20", `$env["POP"] >= 10 and $env["POP"] <= 20`},
		{"[NAME].match('^San')", `$env["NAME"] matches ('^San')`},
		{"[A] == 'a=b'", `$env["A"] == 'a=b'`},
		{"[STATE NAME] != '[x]'", `$env["STATE NAME"] != '[x]'`},
	} {
		got, err := translate(test.in)
		if err != nil {
			t.Fatalf("translating %q: %s", test.in, err)
		}
		if got != test.out {
			t.Errorf("translating %q: expected %q, got %q", test.in, test.out, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "[STATE = 'x'", "[STATE] = 'x", "[] = 1", "[A] = = ="} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestPass(t *testing.T) {
	cali := feature(map[string]interface{}{"STATE": "California", "POP": int64(39000000)})
	nevada := feature(map[string]interface{}{"STATE": "Nevada", "POP": 3.1e6})
	empty := feature(nil)

	for _, test := range []struct {
		expr                string
		cali, nevada, empty bool
	}{
		{"[STATE] = 'California'", true, false, false},
		{"[STATE] <> 'California'", false, true, true},
		{"[POP] > 10000000", true, false, false},
		{"[STATE].match('^Ne')", false, true, false},
		{"not ([STATE] = 'Nevada') and [POP] > 0", true, false, false},
		{"[STATE] = 'Nevada' or [STATE] = 'California'", true, true, false},
		{"[STATE] > 3", false, false, false}, // type mismatch rejects
	} {
		f := MustParse(test.expr)
		if f.String() != test.expr {
			t.Errorf("String() should return the source, got %q", f.String())
		}
		if got := f.Pass(cali); got != test.cali {
			t.Errorf("%s on California: expected %v", test.expr, test.cali)
		}
		if got := f.Pass(nevada); got != test.nevada {
			t.Errorf("%s on Nevada: expected %v", test.expr, test.nevada)
		}
		if got := f.Pass(empty); got != test.empty {
			t.Errorf("%s on empty feature: expected %v", test.expr, test.empty)
		}
	}

	if !All.Pass(empty) {
		t.Error("All should pass every feature")
	}
}
