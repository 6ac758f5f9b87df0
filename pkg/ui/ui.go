// Package ui renders command results for the terminal and in structured
// formats.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/arthur-debert/bulge/pkg/ui/styles"
	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// PackageView is the information shown by the info command
type PackageView struct {
	Name        string   `json:"name" yaml:"name" toml:"name"`
	Version     string   `json:"version" yaml:"version" toml:"version"`
	Epoch       int      `json:"epoch" yaml:"epoch" toml:"epoch"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Source      string   `json:"source" yaml:"source" toml:"source"`
	Installed   bool     `json:"installed" yaml:"installed" toml:"installed"`
	State       string   `json:"state,omitempty" yaml:"state,omitempty" toml:"state,omitempty"`
	Available   string   `json:"available,omitempty" yaml:"available,omitempty" toml:"available,omitempty"`
	Groups      []string `json:"groups" yaml:"groups" toml:"groups"`
	Provides    []string `json:"provides" yaml:"provides" toml:"provides"`
	Conflicts   []string `json:"conflicts" yaml:"conflicts" toml:"conflicts"`
	Files       []string `json:"files" yaml:"files" toml:"files"`
}

// ViewFromRecord builds the view of an installed package
func ViewFromRecord(rec types.InstalledPackage) PackageView {
	return PackageView{
		Name:      rec.Name,
		Version:   rec.Version,
		Epoch:     rec.Epoch,
		Source:    rec.Source,
		Installed: true,
		State:     string(rec.State),
		Groups:    rec.Groups,
		Provides:  rec.Provides,
		Conflicts: rec.Conflicts,
		Files:     rec.InstalledFiles,
	}
}

// SearchRow is one search result
type SearchRow struct {
	Name        string
	Version     string
	Source      string
	Description string
	Installed   string
}

// UpgradeRow is an installed package with a newer version available
type UpgradeRow struct {
	Name      string
	Installed string
	Available string
	Source    string
}

// Renderer writes command results to an output
type Renderer struct {
	w      io.Writer
	format Format
}

// NewRenderer creates a renderer for format
func NewRenderer(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format}
}

// RenderPackage renders the info view of one package
func (r *Renderer) RenderPackage(view PackageView) error {
	switch r.format {
	case FormatJSON:
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.w, string(data))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(r.w).Encode(view)
	}

	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(styles.Render("Label", label) + value + "\n")
	}
	field("Name", styles.Render("Package", view.Name))
	field("Version", styles.Render("Version", view.Version))
	if view.Epoch != 0 {
		field("Epoch", strconv.Itoa(view.Epoch))
	}
	if view.Description != "" {
		field("Description", view.Description)
	}
	field("Source", styles.Render("Source", view.Source))
	switch {
	case !view.Installed:
		field("Installed", "no")
	case view.State == string(types.RecordPending):
		field("Installed", styles.Render("Pending", "incomplete, needs reconciliation"))
	default:
		field("Installed", "yes")
	}
	if view.Available != "" {
		field("Available", styles.Render("Version", view.Available))
	}
	field("Groups", listOrNone(view.Groups))
	field("Provides", listOrNone(view.Provides))
	field("Conflicts", listOrNone(view.Conflicts))
	if view.Installed {
		field("Files", strconv.Itoa(len(view.Files)))
		for _, f := range view.Files {
			b.WriteString(styles.Render("Indent", styles.Render("FilePath", f)) + "\n")
		}
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// RenderInstalled renders the list of installed packages as a table
func (r *Renderer) RenderInstalled(records []types.InstalledPackage) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(r.w, styles.Render("Muted", "No packages installed"))
		return err
	}
	data := pterm.TableData{{"Name", "Version", "Source", "Files", "State"}}
	for _, rec := range records {
		state := string(types.RecordCommitted)
		if rec.Pending() {
			state = styles.Render("Pending", string(types.RecordPending))
		}
		data = append(data, []string{
			rec.Name,
			VersionString(rec.Epoch, rec.Version),
			rec.Source,
			strconv.Itoa(len(rec.InstalledFiles)),
			state,
		})
	}
	return r.table(data)
}

// RenderSearch renders search results as a table
func (r *Renderer) RenderSearch(rows []SearchRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(r.w, styles.Render("Muted", "No packages found"))
		return err
	}
	data := pterm.TableData{{"Name", "Version", "Source", "Installed", "Description"}}
	for _, row := range rows {
		data = append(data, []string{row.Name, row.Version, row.Source, row.Installed, row.Description})
	}
	return r.table(data)
}

// RenderUpgrades renders the packages with newer versions available
func (r *Renderer) RenderUpgrades(rows []UpgradeRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(r.w, styles.Render("Success", "All packages are up to date"))
		return err
	}
	_, _ = fmt.Fprintln(r.w, styles.Render("Header", "Upgrades available"))
	data := pterm.TableData{{"Name", "Installed", "Available", "Source"}}
	for _, row := range rows {
		data = append(data, []string{row.Name, row.Installed, styles.Render("Version", row.Available), row.Source})
	}
	return r.table(data)
}

// RenderError renders an error, including its code and details
func (r *Renderer) RenderError(err error) {
	code := errors.GetErrorCode(err)
	if code == errors.ErrUserDeclined {
		_, _ = fmt.Fprintln(r.w, styles.Render("Warning", "Abandoning "+declinedWhat(err)+"!"))
		return
	}
	_, _ = fmt.Fprintf(r.w, "%s %s\n", styles.Render("Error", "error:"), err.Error())
}

func (r *Renderer) table(data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.w, out)
	return err
}

func declinedWhat(err error) string {
	if what, ok := errors.GetErrorDetails(err)["operation"].(string); ok && what != "" {
		return what
	}
	return "operation"
}

// VersionString renders a version with its epoch prefix when non-zero
func VersionString(epoch int, version string) string {
	if epoch == 0 {
		return version
	}
	return strconv.Itoa(epoch) + ":" + version
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return styles.Render("Muted", "none")
	}
	return strings.Join(items, ", ")
}
