package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"driveway/internal/model"
)

var (
	folderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	trashedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Strikethrough(true)
	starStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	posStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// printDocs writes one line per document, numbered so the positions can be
// referenced as "%N" in the next invocation.
func printDocs(w io.Writer, docs []model.Doc) {
	for i, doc := range docs {
		name := doc.Name
		switch {
		case doc.Trashed:
			name = trashedStyle.Render(name)
		case doc.IsFolder():
			name = folderStyle.Render(name + "/")
		}

		star := "  "
		if doc.Starred {
			star = starStyle.Render("* ")
		}

		fmt.Fprintf(w, "%s %s%s  %s\n",
			posStyle.Render(fmt.Sprintf("%%%-3d", i+1)),
			star,
			name,
			timeStyle.Render(humanize.Time(doc.ModifiedTime)),
		)
	}
}

// printPath writes one folder path as a slash-separated chain.
func printPath(w io.Writer, path []model.Doc) {
	if len(path) == 0 {
		fmt.Fprintln(w, "  (top level)")
		return
	}

	fmt.Fprint(w, "  ")
	for i, doc := range path {
		if i > 0 {
			fmt.Fprint(w, " / ")
		}
		fmt.Fprint(w, doc.Name)
	}
	fmt.Fprintln(w)
}
