package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type palette struct {
	Operator func(...any) string
	Name     func(...any) string
	Type     func(...any) string
	Faint    func(...any) string
}

func plainPalette() *palette {
	return &palette{Operator: fmt.Sprint, Name: fmt.Sprint, Type: fmt.Sprint, Faint: fmt.Sprint}
}

func colorPalette() *palette {
	sprint := func(attrs ...color.Attribute) func(...any) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintFunc()
	}
	return &palette{
		Operator: sprint(color.FgCyan, color.Bold),
		Name:     sprint(color.FgYellow),
		Type:     sprint(color.FgGreen),
		Faint:    sprint(color.Faint),
	}
}

// newPalette colors output written to a terminal unless force says
// otherwise.
func newPalette(w io.Writer, force *bool) *palette {
	if force != nil {
		if *force {
			return colorPalette()
		}
		return plainPalette()
	}
	f, ok := w.(*os.File)
	if !ok {
		return plainPalette()
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return colorPalette()
	}
	return plainPalette()
}
