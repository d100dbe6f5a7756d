// Package compiler runs the Vero pipeline: lex, parse, validate and, when
// no errors remain, transpile to Playwright TypeScript.
package compiler

import (
	"time"

	"github.com/tliron/commonlog"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/lexer"
	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/transpiler"
	"github.com/chriserin/vero/internal/validator"
)

var log = commonlog.GetLogger("vero.compiler")

// Options configure every stage. The zero value uses the default
// vocabulary, suggester and codegen settings.
type Options struct {
	Vocabulary lexer.Vocabulary
	Suggester  diag.Suggester
	Codegen    transpiler.Options
}

// Result carries the output of every stage that ran. Result holds the
// diagnostics of all stages in stage order: lexical, syntax, semantic.
type Result struct {
	Tokens    []lexer.Token
	Program   *parser.Program
	Validated *validator.Validated
	Result    diag.ValidationResult
	Output    *transpiler.Output
	GenErr    error
}

// Valid reports whether no stage produced an error diagnostic.
func (r *Result) Valid() bool {
	return r.Result.Valid
}

// Compile runs the whole pipeline on source. Generation only runs for
// valid programs; a generation failure is reported in GenErr.
func Compile(source string, opts Options) *Result {
	r := Check(source, opts)
	if !r.Result.Valid {
		log.Debugf("skipping generation: %s", r.Result.Summary())
		return r
	}

	start := time.Now()
	r.Output, r.GenErr = transpiler.Transpile(r.Validated, opts.Codegen)
	if r.GenErr != nil {
		log.Errorf("generation failed: %s", r.GenErr)
		return r
	}
	log.Debugf("generated %d files in %s", len(r.Output.Files()), time.Since(start))
	return r
}

// Check runs the pipeline up to and including validation.
func Check(source string, opts Options) *Result {
	r := &Result{}

	start := time.Now()
	var lexDiags []diag.Diagnostic
	r.Tokens, lexDiags = lexer.New(source, opts.Vocabulary).Tokenize()
	log.Debugf("lexed %d tokens, %d diagnostics in %s", len(r.Tokens), len(lexDiags), time.Since(start))

	start = time.Now()
	var parseDiags []diag.Diagnostic
	r.Program, parseDiags = parser.ParseWith(r.Tokens, parser.Options{Suggester: opts.Suggester})
	log.Debugf("parsed %d pages, %d page actions, %d features, %d diagnostics in %s",
		len(r.Program.Pages), len(r.Program.PageActions), len(r.Program.Features), len(parseDiags), time.Since(start))

	start = time.Now()
	r.Validated = validator.Validate(r.Program, validator.Options{
		Vocabulary: opts.Vocabulary,
		Suggester:  opts.Suggester,
	})
	log.Debugf("validated with %s in %s", r.Validated.Result.Summary(), time.Since(start))

	all := make([]diag.Diagnostic, 0, len(lexDiags)+len(parseDiags)+len(r.Validated.Result.Diagnostics))
	all = append(all, lexDiags...)
	all = append(all, parseDiags...)
	all = append(all, r.Validated.Result.Diagnostics...)
	r.Result = diag.NewValidationResult(all)
	// The transpiler trusts Validated.Result, so it must see syntax errors too.
	r.Validated.Result = r.Result
	return r
}
