// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent entry lines
	nameWidth   = 35 // Base width for entry name
	typeWidth   = 8  // Width for entry type
	statusWidth = 10 // Width for status text
)

// 🎯 FileOperation is one archive entry change shown in the feed
type FileOperation struct {
	Path       string // Entry name in the output archive
	Type       string // Entry type (html/css/asset/dir/file)
	Status     string // What happened to the entry
	Detail     string // Previous name, count or error text
	IsNew      bool   // Entry did not exist in the upload
	IsModified bool   // Content was rewritten
	IsRemoved  bool   // Entry was dropped
	IsRenamed  bool   // Entry moved to a new name
	IsFailed   bool   // Entry kept its original content after an error
}

// 📦 RunOperation describes one processing run
type RunOperation struct {
	RunID   string // Unique id of the run
	Archive string // Name of the uploaded archive
	Sources int    // Number of data point lists
}

// 🎯 Logger prints the change feed of a run and mirrors it to zerolog
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentOp  *RunOperation
	operations []FileOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsFailed:
		symbol = '!'
		symbolColor = color.FgRed
	case op.IsRemoved:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsRenamed:
		symbol = '→'
		symbolColor = color.FgMagenta
	case op.IsNew:
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.IsModified:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	var typeColor color.Attribute
	switch op.Type {
	case "html":
		typeColor = color.FgCyan
	case "css":
		typeColor = color.FgYellow
	case "asset":
		typeColor = color.FgGreen
	default:
		typeColor = color.FgBlue
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(typeColor).Sprint(fmt.Sprintf("%-*s", typeWidth, op.Type)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
	if op.Detail != "" {
		line += " " + color.New(color.Faint).Sprint(op.Detail)
	}
	return line
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	ev := l.zlog.Info()
	if op.IsFailed {
		ev = l.zlog.Warn()
	}
	ev.Str("entry", op.Path).
		Str("type", op.Type).
		Str("status", op.Status).
		Str("detail", op.Detail).
		Bool("is_new", op.IsNew).
		Bool("is_modified", op.IsModified).
		Bool("is_removed", op.IsRemoved).
		Bool("is_renamed", op.IsRenamed).
		Msg("entry operation")
}

// 📝 StartRunOperation starts a new run
func (l *Logger) StartRunOperation(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.operations = nil

	fmt.Fprintf(l.console, "[processing %s]\n",
		color.New(color.FgCyan).Sprint(op.Archive))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.RunID),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprintf("%d csv", op.Sources))

	l.zlog.Info().
		Str("run_id", op.RunID).
		Str("archive", op.Archive).
		Int("sources", op.Sources).
		Msg("starting run")
}

// 📝 EndRunOperation ends the current run and returns the operations it logged
func (l *Logger) EndRunOperation(ctx context.Context) []FileOperation {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return nil
	}

	ops := l.operations
	failed := 0
	for _, op := range ops {
		if op.IsFailed {
			failed++
		}
	}

	l.zlog.Info().
		Str("run_id", l.currentOp.RunID).
		Int("entries", len(ops)).
		Int("failed", failed).
		Msg("run complete")

	l.currentOp = nil
	l.operations = nil
	return ops
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("webbind")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}
