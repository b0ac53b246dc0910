/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/allbin/go-pcireset"
	"github.com/allbin/go-pcireset/internal/tui/styles"
)

// consoleDiagnostics prints reset progress as styled lines
type consoleDiagnostics struct {
	out io.Writer
}

var _ pcireset.Diagnostics = consoleDiagnostics{}

func (d consoleDiagnostics) Info(msg string) {
	fmt.Fprintln(d.out, styles.RenderLevel(styles.LevelInfo, msg))
}

func (d consoleDiagnostics) Success(msg string) {
	fmt.Fprintln(d.out, styles.RenderLevel(styles.LevelSuccess, msg))
}

func (d consoleDiagnostics) Warning(msg string) {
	fmt.Fprintln(d.out, styles.RenderLevel(styles.LevelWarning, msg))
}
