package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/scott-cotton/cli"
	"k8s.io/klog/v2"

	"github.com/born-ml/torchscript"
)

type showConfig struct {
	*cli.Command

	Config string `cli:"name=config aliases=c desc='YAML configuration file'"`
	Attrs  bool   `cli:"name=attrs aliases=a desc='record operator attributes while tracing'"`
	Color  bool   `cli:"name=color desc='force colored output'"`
}

func (cfg *showConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: tsgraph show <archive>...", cli.ErrUsage)
	}
	settings, err := loadSettings(cfg.Config)
	if err != nil {
		return err
	}
	if cfg.Attrs {
		settings.TraceAttributes = true
	}
	if cfg.Color {
		settings.Color = &cfg.Color
	}
	opts, err := settings.loadOptions()
	if err != nil {
		return err
	}

	ctx := klog.NewContext(context.Background(), opts.Logger)
	p := newPalette(cc.Out, settings.Color)
	for i, arg := range args {
		model, err := openModel(ctx, arg, opts)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(cc.Out)
		}
		printModel(cc.Out, p, model)
	}
	return nil
}

func printModel(w io.Writer, p *palette, model *torchscript.Model) {
	fmt.Fprintf(w, "%s %s\n", p.Faint("format:"), model.Format())
	if producer := model.Producer(); producer != "" {
		fmt.Fprintf(w, "%s %s\n", p.Faint("producer:"), producer)
	}
	for _, g := range model.Graphs() {
		printGraph(w, p, g)
	}
}

func printGraph(w io.Writer, p *palette, g *torchscript.Graph) {
	fmt.Fprintf(w, "graph %s\n", p.Name(g.Name))
	for _, in := range g.Inputs {
		fmt.Fprintf(w, "  input %s\n", p.Name(in.Name))
	}
	for _, out := range g.Outputs {
		fmt.Fprintf(w, "  output %s\n", p.Name(out.Name))
	}
	for _, n := range g.Nodes {
		header := p.Operator(n.Operator)
		if n.Name != "" {
			header += " " + p.Name(n.Name)
		}
		if c := n.Category(); c != "" {
			header += " " + p.Faint("("+c+")")
		}
		fmt.Fprintf(w, "  node %s\n", header)
		for _, in := range n.Inputs {
			if in.Visible {
				fmt.Fprintf(w, "    %s: %s\n", in.Name, formatArguments(p, in.Arguments))
			}
		}
		for _, a := range n.Attributes {
			if a.Visible {
				fmt.Fprintf(w, "    %s = %v\n", a.Name, a.Value)
			}
		}
		for _, out := range n.Outputs {
			if out.Visible {
				fmt.Fprintf(w, "    -> %s: %s\n", out.Name, formatArguments(p, out.Arguments))
			}
		}
	}
}

func formatArguments(p *palette, args []*torchscript.Argument) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		var s string
		switch {
		case a.Initializer != nil:
			s = p.Type(a.Type().String())
		case a.Type() != nil:
			s = a.ID + " " + p.Type(a.Type().String())
		default:
			s = a.ID
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
