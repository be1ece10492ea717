// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders command-line output for the mutant CLI.
//
// Styled output (colors, boxes, icons) is used only when the destination
// is a terminal; pipes and files get plain text that scripts can parse.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// =============================================================================
// Palette
// =============================================================================

var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles holds the shared lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Box      lipgloss.Style
	ErrorBox lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
	Error:   lipgloss.NewStyle().Foreground(ColorError),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),
}

// Icon is a single-glyph status marker.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
)

// Render colors the icon by meaning.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// =============================================================================
// Printer
// =============================================================================

// Printer writes styled or plain output to one destination.
type Printer struct {
	w      io.Writer
	styled bool
}

// NewPrinter styles output only when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, styled: IsTerminal(w)}
}

// NewPlainPrinter never styles output.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Styled reports whether this printer emits ANSI styling.
func (p *Printer) Styled() bool { return p.styled }

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Field is one labelled value in a Printer.Fields block.
type Field struct {
	Label string
	Value string
}

// Verdict prints a headline with an alert or success marker followed by
// detail fields.
func (p *Printer) Verdict(alert bool, headline string, fields ...Field) {
	if !p.styled {
		fmt.Fprintln(p.w, headline)
		p.plainFields(fields)
		return
	}

	icon, style := IconSuccess, Styles.Success
	if alert {
		icon, style = IconWarning, Styles.Warning
	}
	var b strings.Builder
	b.WriteString(icon.Render() + " " + style.Render(headline))
	for _, f := range fields {
		b.WriteString("\n" + Styles.Muted.Render(f.Label+":") + " " + f.Value)
	}
	fmt.Fprintln(p.w, Styles.Box.Render(b.String()))
}

// Fields prints a titled block of labelled values.
func (p *Printer) Fields(title string, fields ...Field) {
	if !p.styled {
		fmt.Fprintln(p.w, title)
		p.plainFields(fields)
		return
	}
	var b strings.Builder
	b.WriteString(Styles.Title.Render(title))
	for _, f := range fields {
		b.WriteString("\n" + IconBullet.Render() + " " + Styles.Bold.Render(f.Label+":") + " " + f.Value)
	}
	fmt.Fprintln(p.w, Styles.Box.Render(b.String()))
}

// Error prints err.
func (p *Printer) Error(err error) {
	if !p.styled {
		fmt.Fprintf(p.w, "error: %v\n", err)
		return
	}
	fmt.Fprintln(p.w, Styles.ErrorBox.Render(IconError.Render()+" "+Styles.Error.Render(err.Error())))
}

func (p *Printer) plainFields(fields []Field) {
	for _, f := range fields {
		fmt.Fprintf(p.w, "  %s: %s\n", f.Label, f.Value)
	}
}
