// Package workload generates deterministic fixture corpora for the
// rewrite engine. A corpus is one load-rewrites request (the rule
// definition) plus any number of simplify-expressions requests (the
// fixtures), each a JSON document the engine reads from stdin.
package workload

import (
	"encoding/json"
	"fmt"
	"io"
	mrand "math/rand"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Rewrite is one named rewrite rule in the engine's pattern syntax.
type Rewrite struct {
	Name string `json:"name"`
	LHS  string `json:"lhs"`
	RHS  string `json:"rhs"`
}

// LoadRewrites is the rule definition request.
type LoadRewrites struct {
	Request  string    `json:"request"`
	Rewrites []Rewrite `json:"rewrites"`
}

// SimplifyExpressions is the fixture request.
type SimplifyExpressions struct {
	Request      string   `json:"request"`
	Exprs        []string `json:"exprs"`
	ConstantFold bool     `json:"constant_fold"`
}

// Summary contains statistics about a generated corpus.
type Summary struct {
	Fixtures    int
	Expressions int
	Rewrites    int
}

// Config controls corpus generation.
type Config struct {
	Fixtures        int
	ExprsPerFixture int
	MaxDepth        int
	Vars            []string
	Seed            int64
	ConstantFold    bool
}

// DefaultVars are the free variables used when Config.Vars is empty.
var DefaultVars = []string{"x", "y", "z"}

// Rules is the fixed rewrite set written as the rule definition.
var Rules = []Rewrite{
	{Name: "commute-add", LHS: "(+ ?a ?b)", RHS: "(+ ?b ?a)"},
	{Name: "commute-mul", LHS: "(* ?a ?b)", RHS: "(* ?b ?a)"},
	{Name: "associate-add", LHS: "(+ ?a (+ ?b ?c))", RHS: "(+ (+ ?a ?b) ?c)"},
	{Name: "associate-mul", LHS: "(* ?a (* ?b ?c))", RHS: "(* (* ?a ?b) ?c)"},
	{Name: "sub-neg", LHS: "(- ?a ?b)", RHS: "(+ ?a (neg ?b))"},
	{Name: "neg-neg", LHS: "(neg (neg ?a))", RHS: "?a"},
	{Name: "add-zero", LHS: "(+ ?a 0)", RHS: "?a"},
	{Name: "mul-one", LHS: "(* ?a 1)", RHS: "?a"},
	{Name: "mul-zero", LHS: "(* ?a 0)", RHS: "0"},
	{Name: "distribute", LHS: "(* ?a (+ ?b ?c))", RHS: "(+ (* ?a ?b) (* ?a ?c))"},
	{Name: "factor", LHS: "(+ (* ?a ?b) (* ?a ?c))", RHS: "(* ?a (+ ?b ?c))"},
	{Name: "div-self", LHS: "(/ ?a ?a)", RHS: "1"},
	{Name: "sqrt-square", LHS: "(sqrt (* ?a ?a))", RHS: "(fabs ?a)"},
}

var (
	binaryOps = []string{"+", "-", "*", "/"}
	unaryOps  = []string{"neg", "sqrt", "fabs"}
)

// Generator produces deterministic corpora from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	if len(cfg.Vars) == 0 {
		cfg.Vars = DefaultVars
	}

	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// GenerateRules writes the rule definition request to w.
func (g *Generator) GenerateRules(w io.Writer) error {
	return encode(w, LoadRewrites{Request: "load-rewrites", Rewrites: Rules})
}

// GenerateFixture writes the next fixture request to w and returns how
// many expressions it holds.
func (g *Generator) GenerateFixture(w io.Writer) (int, error) {
	exprs := make([]string, g.cfg.ExprsPerFixture)
	for i := range exprs {
		exprs[i] = g.randomExpr(g.cfg.MaxDepth)
	}

	err := encode(w, SimplifyExpressions{
		Request:      "simplify-expressions",
		Exprs:        exprs,
		ConstantFold: g.cfg.ConstantFold,
	})

	return len(exprs), err
}

// WriteCorpus writes the rule definition to rulesPath and the fixtures to
// dir as fixture-NNN.json.
func (g *Generator) WriteCorpus(fs afero.Fs, dir, rulesPath string) (Summary, error) {
	var summary Summary

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return summary, fmt.Errorf("create fixture dir %s: %w", dir, err)
	}

	if err := fs.MkdirAll(filepath.Dir(rulesPath), 0o755); err != nil {
		return summary, fmt.Errorf("create rules dir: %w", err)
	}

	if err := writeFile(fs, rulesPath, g.GenerateRules); err != nil {
		return summary, fmt.Errorf("write rules: %w", err)
	}

	summary.Rewrites = len(Rules)

	for i := 0; i < g.cfg.Fixtures; i++ {
		path := filepath.Join(dir, fmt.Sprintf("fixture-%03d.json", i))

		var n int

		err := writeFile(fs, path, func(w io.Writer) error {
			var err error
			n, err = g.GenerateFixture(w)

			return err
		})
		if err != nil {
			return summary, fmt.Errorf("write fixture %s: %w", path, err)
		}

		summary.Fixtures++
		summary.Expressions += n
	}

	return summary, nil
}

func (g *Generator) randomExpr(depth int) string {
	if depth <= 0 || g.rng.Intn(4) == 0 {
		return g.randomLeaf()
	}

	if g.rng.Intn(3) == 0 {
		op := unaryOps[g.rng.Intn(len(unaryOps))]

		return "(" + op + " " + g.randomExpr(depth-1) + ")"
	}

	op := binaryOps[g.rng.Intn(len(binaryOps))]

	return "(" + strings.Join([]string{
		op, g.randomExpr(depth - 1), g.randomExpr(depth - 1),
	}, " ") + ")"
}

func (g *Generator) randomLeaf() string {
	if g.rng.Intn(3) == 0 {
		return strconv.Itoa(g.rng.Intn(5))
	}

	return g.cfg.Vars[g.rng.Intn(len(g.cfg.Vars))]
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

func writeFile(fs afero.Fs, path string, write func(io.Writer) error) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}
