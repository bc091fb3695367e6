package cmd

import (
	"context"
	"log/slog"
)

// Eval evaluates the --source files followed by each expression argument in
// one interpreter and prints the final value.
type Eval struct {
	Output string `default:"native" enum:"native,json,yaml" help:"Output format (${enum})." short:"o"`
	Indent int    `default:"2"                              help:"Indent width for json and yaml output; 0 is compact." short:"i"`

	Expr []string `arg:"" help:"Expressions evaluated after the sources. Stdin is read when neither is given." name:"expr" optional:""`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, s *Session) error {
	v, err := s.Load(ctx)
	if err != nil {
		return err
	}

	if len(s.Sources) == 0 && len(e.Expr) == 0 {
		v, err = s.Interp.ParseReader(ctx, s.Stdin)
		if err != nil {
			return ErrEvaluate.With(slog.String("source", stdinSource)).Wrap(err)
		}
	}

	for _, src := range e.Expr {
		v, err = s.Interp.Parse(ctx, src)
		if err != nil {
			return ErrEvaluate.With(slog.String("expr", src)).Wrap(err)
		}
	}

	return s.Print(ctx, v, e.Output, e.Indent)
}
