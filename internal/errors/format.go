package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	errorStyle  = text.Colors{text.FgRed, text.Bold}
	codeStyle   = text.Colors{text.FgWhite, text.Bold}
	messageText = text.Colors{text.FgWhite}
	accentStyle = text.Colors{text.FgCyan}
	mutedStyle  = text.Colors{text.FgHiBlack}
	linkStyle   = text.Colors{text.FgBlue}
)

var colorEnabled = true

// DisableColors turns off ANSI output for errors and for go-pretty tables.
func DisableColors() {
	colorEnabled = false
	text.DisableColors()
}

func EnableColors() {
	colorEnabled = true
	text.EnableColors()
}

func paint(c text.Colors, s string) string {
	if !colorEnabled {
		return s
	}
	return c.Sprint(s)
}

// Format returns the multi-line form for terminal display.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(paint(errorStyle, "ERROR "))
		b.WriteString(paint(codeStyle, e.Code+": "))
	} else {
		b.WriteString(paint(errorStyle, "ERROR: "))
	}
	b.WriteString(paint(messageText, e.Message))
	b.WriteString("\n\n")

	if e.Component != "" {
		b.WriteString("  ")
		b.WriteString(paint(accentStyle, "in "+e.Component))
		b.WriteString("\n\n")
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(paint(mutedStyle, "Cause: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(paint(accentStyle, "Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n\n")
	}

	if e.DocURL != "" {
		b.WriteString("  ")
		b.WriteString(paint(mutedStyle, "Learn more: "))
		b.WriteString(paint(linkStyle, e.DocURL))
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *Error) FormatCompact() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Component != "" {
		b.WriteString(" [")
		b.WriteString(e.Component)
		b.WriteString("]")
	}
	return b.String()
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Component  string   `json:"component,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	DocURL     string   `json:"docUrl,omitempty"`
	Cause      string   `json:"cause,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *Error) FormatJSON() string {
	je := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Component:  e.Component,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		je.Cause = e.Wrapped.Error()
	}
	data, _ := json.Marshal(je)
	return string(data)
}

// wrapText breaks text into lines of at most width runes on word
// boundaries.
func wrapText(s string, width int) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(text.WrapSoft(s, width), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

// Print writes the formatted form of err to w.
func Print(w io.Writer, err error) {
	if ke := FromError(err, CodeCommandFailed); ke != nil {
		fmt.Fprint(w, ke.Format())
	}
}
