package milp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const termsPerLine = 8

var lpReplacer = strings.NewReplacer("[", "(", "]", ")", "-", "_", " ", "_", ":", "_")

// LPName rewrites a model name into a CPLEX LP compatible identifier.
func LPName(name string) string { return lpReplacer.Replace(name) }

// WriteLP renders m in CPLEX LP format.
func WriteLP(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)
	lw := &lpWriter{w: bw, m: m}
	lw.printf("\\ Problem: %s\n", m.Name)
	if m.Objective.Sense == Minimize {
		lw.printf("Minimize\n")
	} else {
		lw.printf("Maximize\n")
	}
	lw.printf(" obj:")
	lw.expr(m.Objective.Expr)
	lw.printf("\nSubject To\n")
	for _, c := range m.Constraints {
		lw.printf(" %s:", LPName(c.Name))
		lw.expr(c.Expr)
		lw.printf(" %s %s\n", c.Sense, formatNumber(c.RHS))
	}

	var general, binary []string
	lw.printf("Bounds\n")
	for _, v := range m.Vars {
		switch v.Domain {
		case Binary:
			binary = append(binary, LPName(v.Name))
		case NonNegativeInteger:
			general = append(general, LPName(v.Name))
			lw.printf(" %s >= 0\n", LPName(v.Name))
		default:
			lw.printf(" %s >= 0\n", LPName(v.Name))
		}
	}
	lw.section("General", general)
	lw.section("Binary", binary)
	lw.printf("End\n")
	if lw.err != nil {
		return lw.err
	}
	return bw.Flush()
}

type lpWriter struct {
	w   *bufio.Writer
	m   *Model
	err error
}

func (l *lpWriter) printf(format string, args ...any) {
	if l.err != nil {
		return
	}
	_, l.err = fmt.Fprintf(l.w, format, args...)
}

func (l *lpWriter) expr(e Expr) {
	if len(e) == 0 {
		if len(l.m.Vars) > 0 {
			l.printf(" 0 %s", LPName(l.m.Vars[0].Name))
		}
		return
	}
	for i, t := range e {
		if i > 0 && i%termsPerLine == 0 {
			l.printf("\n   ")
		}
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		name := LPName(l.m.Vars[t.Var].Name)
		if coef == 1 {
			l.printf(" %s %s", sign, name)
		} else {
			l.printf(" %s %s %s", sign, formatNumber(coef), name)
		}
	}
}

func (l *lpWriter) section(title string, names []string) {
	if len(names) == 0 {
		return
	}
	l.printf("%s\n", title)
	for i := 0; i < len(names); i += termsPerLine {
		end := min(i+termsPerLine, len(names))
		l.printf(" %s\n", strings.Join(names[i:end], " "))
	}
}

func formatNumber(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
