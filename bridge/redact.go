package bridge

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// safeVars are channel variables whose values are fine to log.
var safeVars = map[string]bool{
	"LACC_MODE": true, "LACC_FILE": true, "LACC_LANGUAGE": true,
	"LACC_CHANNEL": true, "PYTHONPATH": true,
}

// FormatCommand renders env assignments and argv as a single shell command
// line that reproduces the worker invocation.
func FormatCommand(env []string, argv []string) string {
	parts := make([]string, 0, len(env)+len(argv))
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		parts = append(parts, k+"="+shellQuote(v))
	}
	for _, a := range argv {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return strconv.Quote(s)
	}
	return q
}

// RedactCommand replaces the values of assignments in a shell command line,
// keeping the safe channel variables intact. The credential and the code
// context never reach the logs.
func RedactCommand(cmd string) string {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	prog, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return regexRedact(cmd)
	}

	syntax.Walk(prog, func(node syntax.Node) bool {
		if n, ok := node.(*syntax.Assign); ok {
			if n.Name != nil && !safeVars[n.Name.Value] && n.Value != nil {
				n.Value.Parts = []syntax.WordPart{&syntax.Lit{Value: "***"}}
			}
		}
		return true
	})

	var buf bytes.Buffer
	printer := syntax.NewPrinter(syntax.Indent(0))
	if err := printer.Print(&buf, prog); err != nil {
		return regexRedact(cmd)
	}
	return strings.TrimRight(buf.String(), "\n")
}

var reAssign = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)=('[^']*'|"[^"]*"|\S+)`)

// regexRedact is a fallback for command lines that fail to parse.
func regexRedact(cmd string) string {
	return reAssign.ReplaceAllStringFunc(cmd, func(m string) string {
		name := reAssign.FindStringSubmatch(m)[1]
		if safeVars[name] {
			return m
		}
		return name + "=***"
	})
}

// redactedInvocation is the log-safe form of a worker command line.
func redactedInvocation(env []string, argv []string) string {
	return RedactCommand(FormatCommand(env, argv))
}
