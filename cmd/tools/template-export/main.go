// cmd/tools/template-export/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"corep-assist/internal/common/validation"
	"corep-assist/pkg/templates"
)

func main() {
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)

	// Show command flags
	codeShow := showCmd.String("code", "C_01.00", "Template code (e.g., C_01.00)")

	// Export command flags
	codeExport := exportCmd.String("code", "C_01.00", "Template code (e.g., C_01.00)")
	outPath := exportCmd.String("out", "", "Output file (defaults to stdout)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	registry := templates.NewRegistry()

	switch os.Args[1] {
	case "list":
		for _, summary := range registry.List() {
			fmt.Printf("%s  %s - %s\n", summary.Code, summary.Name, summary.Description)
		}

	case "show":
		showCmd.Parse(os.Args[2:])
		if err := validation.ValidateTemplateCode(*codeShow); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		template, ok := registry.Get(*codeShow)
		if !ok {
			fmt.Printf("Template '%s' not found\n", *codeShow)
			os.Exit(1)
		}
		fmt.Println(registry.FormatOutput(template.TemplateCode, skeleton(template)))

	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := validation.ValidateTemplateCode(*codeExport); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		data, err := registry.Export(*codeExport)
		if err != nil {
			fmt.Printf("Error exporting template: %v\n", err)
			os.Exit(1)
		}
		if *outPath == "" {
			fmt.Println(string(data))
			break
		}
		if err := os.MkdirAll(filepath.Dir(*outPath), 0755); err != nil {
			fmt.Printf("Error creating directory: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outPath, data, 0644); err != nil {
			fmt.Printf("Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %s to %s\n", *codeExport, *outPath)

	case "help":
		fallthrough
	default:
		help()
	}
}

// skeleton lists every field of the template with an empty value, so
// show renders the full report layout.
func skeleton(t *templates.Template) []templates.FieldValue {
	fields := make([]templates.FieldValue, len(t.Fields))
	for i, def := range t.Fields {
		fields[i] = templates.FieldValue{FieldCode: def.FieldCode, Value: "-"}
	}
	return fields
}

func help() {
	fmt.Print(`
Usage: template-export <command> [flags]

Commands:
  list    List all registered COREP templates
  show    Print a template's report layout with empty values
  export  Export a template definition as JSON
  help    Show this help message

Examples:
  template-export list
  template-export show -code C_01.00
  template-export export -code C_01.00 -out exports/c_01_00.json

Use 'template-export <command> -h' for more information about a command.

`)
}
