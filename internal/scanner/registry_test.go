package scanner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"appdeck/internal/catalog"
)

type stubExecutor struct {
	outputs map[string][]byte
	err     error
	args    [][]string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	s.args = append(s.args, append([]string{binary}, args...))
	if s.err != nil {
		return nil, s.err
	}
	for key, out := range s.outputs {
		if strings.Contains(strings.Join(args, " "), key) {
			return out, nil
		}
	}
	return nil, nil
}

const regQueryOutput = "\r\n" +
	"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\r\n" +
	"\r\n" +
	"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\\7-Zip\r\n" +
	"    DisplayName    REG_SZ    7-Zip 23.01 (x64)\r\n" +
	"    DisplayVersion    REG_SZ    23.01\r\n" +
	"    DisplayIcon    REG_SZ    C:\\Program Files\\7-Zip\\7zFM.exe\r\n" +
	"    InstallLocation    REG_SZ    C:\\Program Files\\7-Zip\\\r\n" +
	"    Publisher    REG_SZ    Igor Pavlov\r\n" +
	"\r\n" +
	"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\\Foo\r\n" +
	"    DisplayName    REG_SZ    Foo\r\n" +
	"    DisplayIcon    REG_SZ    \"C:\\Foo\\foo.exe\",0\r\n" +
	"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\\IconOnly\r\n" +
	"    DisplayName    REG_SZ    Icon Only\r\n" +
	"    DisplayIcon    REG_SZ    C:\\IconOnly\\app.ico\r\n" +
	"    InstallLocation    REG_SZ    \"C:\\IconOnly\"\r\n" +
	"\r\n" +
	"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\\Expand\r\n" +
	"    DisplayName    REG_SZ    Expanded\r\n" +
	"    DisplayIcon    REG_EXPAND_SZ    %ProgramFiles%\\Expanded\\run.exe\r\n" +
	"\r\n" +
	"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\\KB5005565\r\n" +
	"    DisplayName    REG_SZ    KB5005565\r\n" +
	"\r\n" +
	"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\\Patch\r\n" +
	"    DisplayName    REG_SZ    Security Update for Microsoft Office\r\n" +
	"\r\n" +
	"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\\Nameless\r\n" +
	"    DisplayIcon    REG_SZ    C:\\Nameless\\x.exe\r\n" +
	"\r\n" +
	"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\\Runtime\r\n" +
	"    DisplayName    REG_SZ    Microsoft Visual C++ 2015 Redistributable\r\n"

func TestRegistryScanParsesBlocks(t *testing.T) {
	exec := &stubExecutor{outputs: map[string][]byte{"Uninstall": []byte(regQueryOutput)}}
	reg, err := NewRegistry(exec, []string{`(?i)redistributable`}, nil)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}
	reg.lookupEnv = func(name string) (string, bool) {
		if name == "ProgramFiles" {
			return `C:\Program Files`, true
		}
		return "", false
	}

	got, err := reg.Scan(context.Background(), `HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	want := []catalog.Candidate{
		{
			DisplayName:     "7-Zip 23.01 (x64)",
			ExecutablePath:  `C:\Program Files\7-Zip\7zFM.exe`,
			InstallLocation: `C:\Program Files\7-Zip\`,
			Publisher:       "Igor Pavlov",
			Source:          catalog.SourceRegistry,
		},
		{DisplayName: "Foo", ExecutablePath: `C:\Foo\foo.exe`, Source: catalog.SourceRegistry},
		{DisplayName: "Icon Only", ExecutablePath: `C:\IconOnly`, InstallLocation: `C:\IconOnly`, Source: catalog.SourceRegistry},
		{DisplayName: "Expanded", ExecutablePath: `C:\Program Files\Expanded\run.exe`, Source: catalog.SourceRegistry},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}

	if len(exec.args) != 1 {
		t.Fatalf("expected one command, got %v", exec.args)
	}
	cmdline := strings.Join(exec.args[0], " ")
	if !strings.HasPrefix(cmdline, "cmd /C chcp 65001 >nul && reg query ") || !strings.HasSuffix(cmdline, " /s") {
		t.Fatalf("unexpected command line: %q", cmdline)
	}
}

func TestRegistryScanReturnsErrorWhenQueryFails(t *testing.T) {
	reg, err := NewRegistry(&stubExecutor{err: errors.New("access denied")}, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}
	if _, err := reg.Scan(context.Background(), `HKCU\Nope`); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewRegistryRejectsBadPattern(t *testing.T) {
	if _, err := NewRegistry(nil, []string{"("}, nil); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestExpandPercentVars(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "SystemRoot" {
			return `C:\Windows`, true
		}
		return "", false
	}
	tests := map[string]string{
		`%SystemRoot%\notepad.exe`: `C:\Windows\notepad.exe`,
		`%Unknown%\x.exe`:          `%Unknown%\x.exe`,
		`100% sure`:                `100% sure`,
		`%%`:                       `%%`,
		`plain`:                    `plain`,
	}
	for in, want := range tests {
		if got := expandPercentVars(in, lookup); got != want {
			t.Fatalf("expandPercentVars(%q) = %q, want %q", in, got, want)
		}
	}
}
