package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/caliper/pkg/stackup"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms chain-script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals,
//     which would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: plus-tol -> plus_tol
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
// Both transformations respect string literal boundaries and line
// comments; ; comments are rewritten to zygomys' // form.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when the hyphen sits between identifier characters (not
		// a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpLink wraps a stackup.ChainLink so it can be returned from `link`
// and consumed by `chain`.
type sexpLink struct {
	link stackup.ChainLink
}

func (l *sexpLink) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(link %g +%g/-%g)", l.link.Nominal, l.link.PlusTol, l.link.MinusTol)
}
func (l *sexpLink) Type() *zygo.RegisteredType { return nil }

// sexpTarget wraps a stackup.TargetSpec.
type sexpTarget struct {
	spec stackup.TargetSpec
}

func (t *sexpTarget) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(target %g +%g/-%g)", t.spec.Nominal, t.spec.PlusTol, t.spec.MinusTol)
}
func (t *sexpTarget) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string. Returns the
// keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword
// argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp,
// handling both preprocessed keywords (__kw_negative) and plain
// strings ("negative").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toDirection converts a keyword or string to a stackup.Direction.
func toDirection(s zygo.Sexp) (stackup.Direction, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected direction keyword (:positive, :negative): %w", err)
	}
	switch name {
	case "positive":
		return stackup.DirPositive, nil
	case "negative":
		return stackup.DirNegative, nil
	}
	return 0, fmt.Errorf("invalid direction %q, expected positive or negative", name)
}

// toDistribution converts a keyword or string to a stackup.Distribution.
func toDistribution(s zygo.Sexp) (stackup.Distribution, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected distribution keyword (:normal, :uniform): %w", err)
	}
	switch name {
	case "normal":
		return stackup.DistNormal, nil
	case "uniform":
		return stackup.DistUniform, nil
	case "triangular":
		return stackup.DistTriangular, nil
	}
	return 0, fmt.Errorf("invalid distribution %q, expected normal, uniform, or triangular", name)
}

// kwFloat assigns a keyword float argument, if present.
func kwFloat(pa kwArgs, key, context string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", context, key, err)
	}
	*dst = f
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// chainCollector accumulates chains defined during one evaluation.
type chainCollector struct {
	chains []*stackup.Chain
}

// registerBuiltins installs the chain DSL builtins into a zygomys
// environment. The builtins append to the provided collector during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable
// string literals.
func registerBuiltins(env *zygo.Zlisp, collector *chainCollector) {

	// -----------------------------------------------------------------------
	// (link :nominal 25 :plus 0.1 :minus 0.1 :direction :positive
	//       :distribution :normal :sigma 3 :name "housing depth")
	// -----------------------------------------------------------------------
	env.AddFunction("link", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		l := stackup.NewLink(0, 0, 0)

		if err := kwFloat(pa, "nominal", "link", &l.Nominal); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwFloat(pa, "plus", "link", &l.PlusTol); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwFloat(pa, "minus", "link", &l.MinusTol); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwFloat(pa, "sigma", "link", &l.Sigma); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["direction"]; ok {
			d, err := toDirection(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("link: direction: %w", err)
			}
			l.Direction = d
		}
		if v, ok := pa.kw["distribution"]; ok {
			d, err := toDistribution(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("link: distribution: %w", err)
			}
			l.Distribution = d
		}
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("link: name: %w", err)
			}
			l.Name = s
		}

		return &sexpLink{link: l}, nil
	})

	// -----------------------------------------------------------------------
	// (target :nominal 54.5 :plus 0.3 :minus 0.3)
	// -----------------------------------------------------------------------
	env.AddFunction("target", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var spec stackup.TargetSpec

		if err := kwFloat(pa, "nominal", "target", &spec.Nominal); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwFloat(pa, "plus", "target", &spec.PlusTol); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwFloat(pa, "minus", "target", &spec.MinusTol); err != nil {
			return zygo.SexpNull, err
		}

		return &sexpTarget{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (chain "gap stack" :target (target ...) (link ...) (link ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("chain", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("chain requires a name argument")
		}

		chainName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chain: name: %w", err)
		}

		c := stackup.NewChain(chainName)
		for i, arg := range pa.positional[1:] {
			l, ok := arg.(*sexpLink)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("chain: argument %d: expected link, got %T (%s)",
					i+1, arg, arg.SexpString(nil))
			}
			c.Links = append(c.Links, l.link)
		}

		if v, ok := pa.kw["target"]; ok {
			t, ok := v.(*sexpTarget)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("chain: target: expected target expression, got %T", v)
			}
			spec := t.spec
			c.Target = &spec
		}

		if err := stackup.ValidateLinks(c.Links); err != nil {
			return zygo.SexpNull, fmt.Errorf("chain %q: %w", chainName, err)
		}

		collector.chains = append(collector.chains, c)
		return &zygo.SexpStr{S: chainName}, nil
	})
}
