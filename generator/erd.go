package generator

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/mzkit/schema"
)

// ERD formats understood by RenderERD.
const (
	FormatMermaid  = "mermaid"
	FormatPlantUML = "plantuml"
	FormatGraphviz = "graphviz"
)

// RenderERD draws the catalog as an entity-relationship diagram.
func RenderERD(models []schema.Model, format string) (string, error) {
	switch format {
	case FormatMermaid:
		return mermaid(models), nil
	case FormatPlantUML:
		return plantUML(models), nil
	case FormatGraphviz:
		return graphviz(models), nil
	default:
		return "", fmt.Errorf("unsupported diagram format %q (want %s, %s or %s)", format, FormatMermaid, FormatPlantUML, FormatGraphviz)
	}
}

func isKey(m schema.Model, column string) bool {
	for _, k := range m.PrimaryKey {
		if k == column {
			return true
		}
	}
	return false
}

type relation struct {
	parent, child, column string
}

func relations(models []schema.Model) []relation {
	var rels []relation
	for _, m := range models {
		for _, col := range m.Columns {
			if col.ForeignKey != nil {
				rels = append(rels, relation{parent: col.ForeignKey.ReferencesTable, child: m.TableName, column: col.Name})
			}
		}
	}
	return rels
}

func mermaid(models []schema.Model) string {
	var b strings.Builder
	b.WriteString("```mermaid\nerDiagram\n")
	for _, m := range models {
		fmt.Fprintf(&b, "    %s {\n", m.TableName)
		for _, col := range m.Columns {
			var marks []string
			if isKey(m, col.Name) {
				marks = append(marks, "PK")
			}
			if col.ForeignKey != nil {
				marks = append(marks, "FK")
			}
			line := fmt.Sprintf("        %s %s", col.Type, col.Name)
			if len(marks) > 0 {
				line += " " + strings.Join(marks, ",")
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("    }\n")
	}
	for _, r := range relations(models) {
		fmt.Fprintf(&b, "    %s ||--o{ %s : %s\n", r.parent, r.child, r.column)
	}
	b.WriteString("```\n")
	return b.String()
}

func plantUML(models []schema.Model) string {
	var b strings.Builder
	b.WriteString("@startuml\n!theme plain\nskinparam linetype ortho\n\n")
	for _, m := range models {
		fmt.Fprintf(&b, "entity \"%s\" {\n", m.TableName)
		for _, col := range m.Columns {
			line := fmt.Sprintf("  %s : %s", col.Name, col.Type)
			if isKey(m, col.Name) {
				line += " <<PK>>"
			}
			if col.ForeignKey != nil {
				line += " <<FK>>"
			}
			if col.NotNull {
				line += " <<NN>>"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("}\n\n")
	}
	for _, r := range relations(models) {
		fmt.Fprintf(&b, "\"%s\" ||--o{ \"%s\" : \"%s\"\n", r.parent, r.child, r.column)
	}
	b.WriteString("@enduml\n")
	return b.String()
}

func graphviz(models []schema.Model) string {
	var b strings.Builder
	b.WriteString("digraph ERD {\n  rankdir=LR;\n  node [shape=record];\n\n")
	for _, m := range models {
		cols := make([]string, len(m.Columns))
		for i, col := range m.Columns {
			cols[i] = fmt.Sprintf("%s: %s", col.Name, col.Type)
			if isKey(m, col.Name) {
				cols[i] += " (PK)"
			}
		}
		fmt.Fprintf(&b, "  %s [label=\"%s|%s\\l\"];\n", m.TableName, m.TableName, strings.Join(cols, "\\l"))
	}
	for _, r := range relations(models) {
		fmt.Fprintf(&b, "  %s -> %s [label=\"%s\"];\n", r.parent, r.child, r.column)
	}
	b.WriteString("}\n")
	return b.String()
}
