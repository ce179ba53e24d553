package main

import (
	"io"
	"os"
	"time"

	obras2pdf "github.com/alnah/go-obras2pdf"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	// NewConverter builds the PDF backend from the resolved options.
	NewConverter func(opts converterOptions) (obras2pdf.PDFConverter, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:          time.Now,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		NewConverter: newConverter,
	}
}
