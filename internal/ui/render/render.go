// Package render writes query results and publications as styled text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/ui/output"
	"go.trai.ch/stencil/internal/ui/style"
)

// Options tunes a Renderer.
type Options struct {
	// JSON selects one JSON document per result instead of text.
	JSON bool
	// Root is the workspace root; text output shows paths relative to it.
	Root string
}

// Renderer formats results for the terminal.
type Renderer struct {
	out  *termenv.Output
	w    io.Writer
	opts Options
}

// New creates a Renderer writing to w.
func New(w io.Writer, opts Options) *Renderer {
	return &Renderer{out: output.New(w), w: w, opts: opts}
}

// SetRoot changes the directory paths are shown relative to.
func (r *Renderer) SetRoot(root string) {
	r.opts.Root = root
}

// Resolution writes the effective implementation of key and every candidate,
// highest priority first.
func (r *Renderer) Resolution(key domain.Key, effective *domain.Implementation, candidates []domain.Implementation) error {
	if r.opts.JSON {
		doc := resolutionJSON{Key: newKeyJSON(key), Candidates: make([]implementationJSON, 0, len(candidates))}
		if effective != nil {
			impl := newImplementationJSON(*effective)
			doc.Effective = &impl
		}
		for _, c := range slices.Backward(candidates) {
			doc.Candidates = append(doc.Candidates, newImplementationJSON(c))
		}
		return r.encode(doc)
	}

	if effective == nil {
		return r.line(r.color(fmt.Sprintf("%s %s %s is not resolved in %s", style.Cross, key.Kind, key.Name, key.Context), style.Red))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s in %s\n", key.Kind, key.Name, key.Context)
	for _, c := range slices.Backward(candidates) {
		if c.SamePath(*effective) {
			fmt.Fprintf(&b, "%s\n", r.color(style.Arrow+" "+r.rel(c.Path), style.Green))
			continue
		}
		fmt.Fprintf(&b, "%s\n", r.color("  "+r.rel(c.Path), style.Slate))
	}
	return r.write(b.String())
}

// Callsites writes every call site, one per line.
func (r *Renderer) Callsites(name domain.LogicalName, sites []domain.Callsite) error {
	if r.opts.JSON {
		doc := make([]callsiteJSON, 0, len(sites))
		for _, s := range sites {
			doc = append(doc, callsiteJSON{
				From:    s.From,
				Kind:    s.Kind,
				Name:    string(s.Name),
				Raw:     s.Raw,
				Start:   s.Range.Start,
				End:     s.Range.End,
				Context: s.Context.String(),
			})
		}
		return r.encode(doc)
	}

	if len(sites) == 0 {
		return r.line(r.color(fmt.Sprintf("%s nothing includes %s", style.Tilde, name), style.Slate))
	}
	var b strings.Builder
	for _, s := range sites {
		fmt.Fprintf(&b, "%s:%d  %s %s\n", r.rel(s.From), s.Range.Start, s.Kind, s.Raw)
	}
	return r.write(b.String())
}

// Outline writes a flattened outline, indenting nodes by include depth.
func (r *Renderer) Outline(res *domain.FlattenResult) error {
	if r.opts.JSON {
		doc := outlineJSON{
			Entry:    res.Entry.File,
			Context:  res.Entry.Context.String(),
			HasCycle: res.HasCycle,
			Nodes:    make([]nodeJSON, 0, len(res.Nodes)),
		}
		for _, n := range res.Nodes {
			doc.Nodes = append(doc.Nodes, nodeJSON{
				Level:      n.Level,
				Text:       n.Text,
				File:       n.File,
				Offset:     n.Offset,
				Depth:      n.Depth,
				Diagnostic: n.Diagnostic.String(),
			})
		}
		for _, h := range res.DependsOn {
			doc.DependsOn = append(doc.DependsOn, h.Path)
		}
		return r.encode(doc)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.color(fmt.Sprintf("%s (%s)", r.rel(res.Entry.File), res.Entry.Context), style.Iris))
	for _, n := range res.Nodes {
		indent := strings.Repeat("  ", n.Depth)
		switch n.Diagnostic {
		case domain.DiagnosticCycle:
			fmt.Fprintf(&b, "%s%s\n", indent, r.color(style.Cycle+" cycle: "+n.Text, style.Yellow))
		case domain.DiagnosticUnresolved:
			fmt.Fprintf(&b, "%s%s\n", indent, r.color(style.Warning+" unresolved: "+n.Text, style.Red))
		case domain.DiagnosticDynamic:
			fmt.Fprintf(&b, "%s%s\n", indent, r.color(style.Tilde+" dynamic: "+n.Text, style.Slate))
		default:
			heading := strings.Repeat("#", n.Level) + " " + n.Text
			fmt.Fprintf(&b, "%s%s  %s\n", indent, heading, r.color(r.rel(n.File), style.Slate))
		}
	}
	return r.write(b.String())
}

// Contexts writes the root paths of every context, lowest priority first.
func (r *Renderer) Contexts(sets map[domain.ContextID]domain.RootPathSet) error {
	ids := slices.SortedFunc(maps.Keys(sets), domain.ContextID.Compare)

	if r.opts.JSON {
		doc := make([]contextJSON, 0, len(ids))
		for _, id := range ids {
			doc = append(doc, newContextJSON(id, sets[id]))
		}
		return r.encode(doc)
	}

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%s\n", r.color(id.String(), style.Iris))
		for _, k := range domain.AllKinds() {
			paths := sets[id].Paths(k)
			if len(paths) == 0 {
				fmt.Fprintf(&b, "  %-10s %s\n", k.DirName(), r.color("(none)", style.Slate))
				continue
			}
			for i, p := range paths {
				label := ""
				if i == 0 {
					label = k.DirName()
				}
				fmt.Fprintf(&b, "  %-10s %s\n", label, r.rel(p))
			}
		}
	}
	return r.write(b.String())
}

// Publication writes the summary of one batch.
func (r *Renderer) Publication(pub domain.Publication) error {
	if r.opts.JSON {
		return r.encode(newPublicationJSON(pub))
	}

	var b strings.Builder
	header := fmt.Sprintf("batch %d: %d events, %d files, %d changes", pub.Batch, pub.Events, len(pub.Files), len(pub.Changes))
	if pub.Rebuilt {
		header += ", rebuilt"
	}
	fmt.Fprintf(&b, "%s\n", r.color(style.Dot+" "+header, style.Iris))

	for _, ch := range pub.Changes {
		switch ch.Type() {
		case domain.ChangeRemoved:
			fmt.Fprintf(&b, "  %s\n", r.color(fmt.Sprintf("removed %s %s in %s", ch.Key.Kind, ch.Key.Name, ch.Key.Context), style.Red))
		default:
			fmt.Fprintf(&b, "  %s\n", r.color(fmt.Sprintf("%s %s %s in %s %s %s",
				ch.Type(), ch.Key.Kind, ch.Key.Name, ch.Key.Context, style.Arrow, r.rel(ch.New.Path)), style.Green))
		}
	}
	for _, cc := range pub.Contexts {
		fmt.Fprintf(&b, "  %s\n", r.color("roots of "+cc.Context.String()+" changed", style.Yellow))
	}
	for _, ep := range pub.EntryPoints {
		fmt.Fprintf(&b, "  %s\n", r.color(style.Tilde+" "+r.rel(ep.File)+" ("+ep.Context.String()+")", style.Slate))
	}
	for _, path := range pub.Degraded {
		fmt.Fprintf(&b, "  %s\n", r.color(style.Warning+" degraded "+r.rel(path), style.Yellow))
	}
	return r.write(b.String())
}

func (r *Renderer) encode(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) color(s string, c lipgloss.Color) string {
	return r.out.String(s).Foreground(termenv.RGBColor(string(c))).String()
}

func (r *Renderer) line(s string) error {
	return r.write(s + "\n")
}

func (r *Renderer) write(s string) error {
	_, err := r.out.WriteString(s)
	return err
}

// rel shortens path to the workspace root when it lies below it.
func (r *Renderer) rel(path string) string {
	if r.opts.Root == "" {
		return path
	}
	rel, err := filepath.Rel(r.opts.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
