// Package graphdebug renders a Waterwork's tank dependency graph to
// structured logs when a pour or pump fails, adapted from the teacher's
// GraphDebugExtension (extensions/graph_debug.go) onto the Hook
// interface instead of an executor-resolution extension.
package graphdebug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/m1gwings/treedrawer/tree"

	ww "github.com/CRSilkworth/waterworks"
)

// Hook implements waterworks.Hook, logging a dependency-tree rendering
// of the tank order whenever a pour or pump fails.
type Hook struct {
	logger *slog.Logger

	done   map[*ww.Tank]bool
	failed map[*ww.Tank]error
}

// New creates a Hook logging through logHandler. Use NewHumanHandler for
// formatted terminal output, NewSilentHandler to discard output in
// tests, or any other slog.Handler for structured logging.
func New(logHandler slog.Handler) *Hook {
	return &Hook{
		logger: slog.New(logHandler),
		done:   make(map[*ww.Tank]bool),
		failed: make(map[*ww.Tank]error),
	}
}

// OnTankStart is a no-op; only completion and failure are tracked.
func (h *Hook) OnTankStart(t *ww.Tank, direction string) {}

// OnTankDone marks t as having poured/pumped successfully.
func (h *Hook) OnTankDone(t *ww.Tank, direction string) {
	h.done[t] = true
}

// OnTankError logs the tank order as a dependency tree, marking t as
// the failure point.
func (h *Hook) OnTankError(w *ww.Waterwork, t *ww.Tank, direction string, err error, order []*ww.Tank) {
	h.failed[t] = err
	h.logger.Error("Tank Error",
		"tank", t.Name,
		"direction", direction,
		"error", err.Error(),
		"dependency_graph", h.formatOrder(order, t, err, direction),
	)
}

func (h *Hook) depsOf(t *ww.Tank, direction string) []*ww.Tank {
	if direction == "pump" {
		return t.PumpDependencies()
	}
	return t.PourDependencies()
}

func (h *Hook) formatOrder(order []*ww.Tank, failed *ww.Tank, failedErr error, direction string) string {
	var sb strings.Builder

	parents := make(map[*ww.Tank][]*ww.Tank)
	for _, t := range order {
		for _, dep := range h.depsOf(t, direction) {
			parents[dep] = append(parents[dep], t)
		}
	}
	var roots []*ww.Tank
	for _, t := range order {
		if len(h.depsOf(t, direction)) == 0 {
			roots = append(roots, t)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Name < roots[j].Name })

	if tree := h.tryHorizontalTree(roots, parents, failed); tree != "" {
		sb.WriteString("\n")
		sb.WriteString(tree)
		sb.WriteString("\n")
	}

	sb.WriteString("\nOrder:\n")
	for _, t := range order {
		status := h.status(t, failed)
		sb.WriteString(fmt.Sprintf("  %s%s\n", t.Name, status))
	}
	if failedErr != nil {
		sb.WriteString("\nError Details:\n")
		sb.WriteString(fmt.Sprintf("  Tank: %s\n", failed.Name))
		sb.WriteString(fmt.Sprintf("  Error: %v\n", failedErr))
	}
	return sb.String()
}

func (h *Hook) status(t, failed *ww.Tank) string {
	switch {
	case t == failed:
		return " ❌ FAILED"
	case h.done[t]:
		return " ✓"
	case h.failed[t] != nil:
		return fmt.Sprintf(" ❌ (error: %v)", h.failed[t])
	default:
		return " (pending)"
	}
}

func (h *Hook) tryHorizontalTree(roots []*ww.Tank, parents map[*ww.Tank][]*ww.Tank, failed *ww.Tank) string {
	if len(roots) == 0 {
		return ""
	}
	var root *tree.Tree
	if len(roots) == 1 {
		root = h.buildTree(roots[0], parents, failed, make(map[*ww.Tank]bool))
	} else {
		root = tree.NewTree(tree.NodeString("Tanks"))
		for _, r := range roots {
			child := h.buildTree(r, parents, failed, make(map[*ww.Tank]bool))
			if child != nil {
				addChild(root, child)
			}
		}
	}
	if root == nil {
		return ""
	}
	return root.String()
}

func (h *Hook) buildTree(t *ww.Tank, parents map[*ww.Tank][]*ww.Tank, failed *ww.Tank, visited map[*ww.Tank]bool) *tree.Tree {
	if visited[t] {
		return nil
	}
	visited[t] = true

	label := t.Name + h.status(t, failed)
	node := tree.NewTree(tree.NodeString(label))

	children := append([]*ww.Tank(nil), parents[t]...)
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	for _, c := range children {
		childTree := h.buildTree(c, parents, failed, visited)
		if childTree != nil {
			addChild(node, childTree)
		}
	}
	return node
}

func addChild(parent, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		addChild(newChild, grandchild)
	}
}

// SilentHandler discards all log output; useful in tests that attach a
// Hook but don't want it writing anywhere.
type SilentHandler struct{}

// NewSilentHandler creates a handler that discards everything.
func NewSilentHandler() *SilentHandler { return &SilentHandler{} }

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool { return false }
func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error { return nil }
func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler             { return h }
func (h *SilentHandler) WithGroup(name string) slog.Handler                  { return h }

// HumanHandler formats log records for a terminal, giving the
// dependency_graph attribute its own multi-line block instead of being
// squashed onto one line.
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a handler writing formatted records to w at
// or above level.
func NewHumanHandler(w io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{writer: w, level: level}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool { return level >= h.level }

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Message == "Tank Error" {
		return h.handleTankError(record)
	}
	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleTankError(record slog.Record) error {
	var tank, errorMsg, direction, graph string
	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "tank":
			tank = a.Value.String()
		case "error":
			errorMsg = a.Value.String()
		case "direction":
			direction = a.Value.String()
		case "dependency_graph":
			graph = a.Value.String()
		}
		return true
	})
	lines := []string{
		"",
		strings.Repeat("=", 70),
		"[graphdebug] Tank Error",
		strings.Repeat("=", 70),
		fmt.Sprintf("Failed Tank: %s", tank),
		fmt.Sprintf("Direction: %s", direction),
		fmt.Sprintf("Error: %s", errorMsg),
		fmt.Sprintf("Dependency Graph:%s", graph),
		strings.Repeat("=", 70),
		"",
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(h.writer, l); err != nil {
			return err
		}
	}
	return nil
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *HumanHandler) WithGroup(name string) slog.Handler       { return h }
