// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// writeTree creates files (slash-separated paths) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func sampleTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		DefaultDefinitionsFile: sampleTable,
		"firmware/Core/Src/telecommands/system_telecommand_defs.c": sampleHandlers,
		"firmware/Core/Src/telecommands/fs_telecommand_defs.c": `
/// @brief Writes a string to a file.
/// @param args_str
/// - Arg 0: File path as string
/// - Arg 1: String to write to file
uint8_t TCMDEXEC_fs_write_file(const char *args_str,
                        char *response_output_buf, uint16_t response_output_buf_len) {
    return 0;
}
`,
		"firmware/Core/Inc/telecommands/fs_telecommand_defs.h": "/// @brief Header copy, never scanned\nuint8_t TCMDEXEC_hello_world(const char *args_str);\n",
		"firmware/build/generated.c": "/// @brief Build output, never scanned\nuint8_t TCMDEXEC_echo_back_args(void) {}\n",
	})
	return root
}

func TestBuild(t *testing.T) {
	root := sampleTree(t)

	cat, err := Build(root, Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if cat.Root() != root {
		t.Errorf("Root() = %q, want %q", cat.Root(), root)
	}
	if cat.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cat.Len())
	}
	if got, want := cat.Names(), []string{"hello_world", "echo_back_args", "fs_write_file"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got := cat.MaxArgumentCount(); got != 2 {
		t.Errorf("MaxArgumentCount() = %d, want 2", got)
	}
	if err := cat.Strict(); err != nil {
		t.Errorf("Strict() error = %v, want nil", err)
	}

	tests := []struct {
		name           string
		wantDocPrefix  string
		wantDocumented bool
		wantArgs       []string
	}{
		{
			name:           "hello_world",
			wantDocPrefix:  "@brief A simple telecommand",
			wantDocumented: true,
			wantArgs:       []string{},
		},
		{
			name:           "echo_back_args",
			wantDocPrefix:  "@brief Responds with the arguments",
			wantDocumented: true,
			wantArgs:       []string{"The string to echo back"},
		},
		{
			name:           "fs_write_file",
			wantDocPrefix:  "@brief Writes a string to a file.",
			wantDocumented: true,
			wantArgs:       []string{"File path as string", "String to write to file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := cat.Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.name)
			}
			if !d.HasDocstring || !strings.HasPrefix(d.Docstring, tt.wantDocPrefix) {
				t.Errorf("Docstring = %q (has=%v), want prefix %q", d.Docstring, d.HasDocstring, tt.wantDocPrefix)
			}
			if d.ArgumentsDocumented != tt.wantDocumented {
				t.Errorf("ArgumentsDocumented = %v, want %v", d.ArgumentsDocumented, tt.wantDocumented)
			}
			if !slices.Equal(d.ArgumentDescriptions, tt.wantArgs) {
				t.Errorf("ArgumentDescriptions = %q, want %q", d.ArgumentDescriptions, tt.wantArgs)
			}
		})
	}

	if _, ok := cat.Lookup("disabled_command"); ok {
		t.Error("Lookup(disabled_command) found a commented-out entry")
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Run("missing definitions file", func(t *testing.T) {
		_, err := Build(t.TempDir(), Options{})
		if err == nil {
			t.Fatal("Build() error = nil, want error")
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want it to wrap os.ErrNotExist", err)
		}
	})

	t.Run("no telecommand table", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			DefaultDefinitionsFile: "// emptied out\n",
		})

		cat, err := Build(root, Options{})
		if cat != nil {
			t.Error("Build() returned a catalog alongside a structural error")
		}
		var structErr *StructuralParseError
		if !errors.As(err, &structErr) {
			t.Fatalf("error = %v, want *StructuralParseError", err)
		}
		if structErr.Count != 0 {
			t.Errorf("Count = %d, want 0", structErr.Count)
		}
	})
}

func TestBuild_CustomOptions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/table.inc": `const TCMD_TelecommandDefinition_t t[] = {
    { .tcmd_name = "ping", .tcmd_func = TCMDEXEC_ping, .number_of_args = 0, .readiness_level = TCMD_READINESS_LEVEL_FOR_OPERATION },
};`,
		"src/handlers.cpp": "/// @brief Pong.\nuint8_t TCMDEXEC_ping(const char *args_str) {}\n",
	})

	cat, err := Build(root, Options{
		DefinitionsFile:  "src/table.inc",
		SourceDir:        "src",
		SourceExtensions: []string{".cpp"},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	d, ok := cat.Lookup("ping")
	if !ok {
		t.Fatal("Lookup(ping) not found")
	}
	if d.Docstring != "@brief Pong." {
		t.Errorf("Docstring = %q, want %q", d.Docstring, "@brief Pong.")
	}
	if d.ArgumentsDocumented {
		t.Error("ArgumentsDocumented = true for a docstring without the marker")
	}
}

func TestCatalog_StrictAndIncomplete(t *testing.T) {
	table := `const TCMD_TelecommandDefinition_t defs[] = {
    { .tcmd_name = "ok", .tcmd_func = TCMDEXEC_ok, .number_of_args = 0, .readiness_level = TCMD_READINESS_LEVEL_FOR_OPERATION },
    { .tcmd_name = "partial", .tcmd_func = TCMDEXEC_partial },
};`

	cat, err := BuildFromSource(table, "")
	if err != nil {
		t.Fatalf("BuildFromSource() error = %v", err)
	}

	if cat.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cat.Len())
	}

	bad := cat.Incomplete()
	if len(bad) != 1 || bad[0].Name != "partial" {
		t.Fatalf("Incomplete() = %+v, want only partial", bad)
	}

	err = cat.Strict()
	var incomplete *IncompleteCatalogError
	if !errors.As(err, &incomplete) {
		t.Fatalf("Strict() error = %v, want *IncompleteCatalogError", err)
	}
	if len(incomplete.Entries) != 1 {
		t.Errorf("len(Entries) = %d, want 1", len(incomplete.Entries))
	}
	for _, want := range []string{"partial", FieldArgumentCount, FieldReadinessLevel} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Strict() error %q does not mention %q", err.Error(), want)
		}
	}
}

func TestCatalog_SnapshotsAreIndependent(t *testing.T) {
	cat, err := BuildFromSource(sampleTable, sampleHandlers)
	if err != nil {
		t.Fatalf("BuildFromSource() error = %v", err)
	}

	defs := cat.Definitions()
	defs[0].Name = "mutated"
	defs[1].ArgumentDescriptions[0] = "mutated"

	if cat.Names()[0] != "hello_world" {
		t.Error("mutating Definitions() result changed the catalog")
	}
	d, _ := cat.Lookup("echo_back_args")
	if d.ArgumentDescriptions[0] != "The string to echo back" {
		t.Error("mutating a returned argument list changed the catalog")
	}
}

func TestCatalog_Reload(t *testing.T) {
	root := sampleTree(t)

	first, err := Build(root, DefaultOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	writeTree(t, root, map[string]string{
		DefaultDefinitionsFile: `const TCMD_TelecommandDefinition_t defs[] = {
    { .tcmd_name = "hello_world", .tcmd_func = TCMDEXEC_hello_world, .number_of_args = 0, .readiness_level = TCMD_READINESS_LEVEL_FOR_OPERATION },
};`,
	})

	second, err := first.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if first.Len() != 3 {
		t.Errorf("original snapshot Len() = %d after reload, want 3", first.Len())
	}
	if second.Len() != 1 {
		t.Errorf("reloaded Len() = %d, want 1", second.Len())
	}

	inMemory, err := BuildFromSource(sampleTable, "")
	if err != nil {
		t.Fatalf("BuildFromSource() error = %v", err)
	}
	if _, err := inMemory.Reload(); err == nil {
		t.Error("Reload() of an in-memory catalog error = nil, want error")
	}
}
