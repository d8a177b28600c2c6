// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestForName(t *testing.T) {
	tests := []struct {
		name     string
		runtime  string
		fallback string
		want     string
		wantErr  bool
	}{
		{name: "explicit native", runtime: NameNative, want: NameNative},
		{name: "explicit virtual", runtime: NameVirtual, want: NameVirtual},
		{name: "empty uses fallback", runtime: "", fallback: NameVirtual, want: NameVirtual},
		{name: "unknown errors", runtime: "container", wantErr: true},
		{name: "empty with unknown fallback errors", runtime: "", fallback: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, err := ForName(tt.runtime, tt.fallback)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if runner.Name() != tt.want {
				t.Errorf("expected runner %s, got %s", tt.want, runner.Name())
			}
		})
	}
}

func TestVirtualRunnerAlwaysAvailable(t *testing.T) {
	if !NewVirtualRunner().Available() {
		t.Error("the embedded interpreter must always be available")
	}
}

func TestVirtualRunnerRun(t *testing.T) {
	tests := []struct {
		name       string
		spec       Spec
		wantCode   int
		wantErr    bool
		wantStdout string
	}{
		{
			name:       "success",
			spec:       Spec{Script: "echo hello"},
			wantStdout: "hello\n",
		},
		{
			name:     "script exit code propagates",
			spec:     Spec{Script: "exit 3"},
			wantCode: 3,
		},
		{
			name: "env variables reach the script",
			spec: Spec{
				Script: "echo $LATTICE_FLAG_ENV",
				Env:    map[string]string{"LATTICE_FLAG_ENV": "staging"},
			},
			wantStdout: "staging\n",
		},
		{
			name: "positional args become parameters",
			spec: Spec{
				Script: `echo "$1-$2"`,
				Args:   []string{"a", "b"},
			},
			wantStdout: "a-b\n",
		},
		{
			name:     "syntax error is a runtime failure",
			spec:     Spec{Script: "if then fi"},
			wantCode: 1,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			tt.spec.Stdout = &stdout
			tt.spec.Stderr = &stderr

			result := NewVirtualRunner().Run(context.Background(), tt.spec)
			if result.ExitCode != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, result.ExitCode)
			}
			if tt.wantErr && result.Err == nil {
				t.Error("expected a runtime error")
			}
			if !tt.wantErr && result.Err != nil {
				t.Errorf("unexpected error: %v", result.Err)
			}
			if tt.wantStdout != "" && stdout.String() != tt.wantStdout {
				t.Errorf("expected stdout %q, got %q", tt.wantStdout, stdout.String())
			}
		})
	}
}

func TestVirtualRunnerWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer

	result := NewVirtualRunner().Run(context.Background(), Spec{
		Script: "pwd",
		Dir:    dir,
		Stdout: &stdout,
		Stderr: &stdout,
	})
	if result.Err != nil || result.ExitCode != 0 {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if !strings.Contains(stdout.String(), dir) {
		t.Errorf("expected pwd to report %s, got %q", dir, stdout.String())
	}
}

func TestNativeRunnerShellArgs(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{shell: "/bin/bash", want: "-c"},
		{shell: "/bin/sh", want: "-c"},
		{shell: "cmd.exe", want: "/C"},
		{shell: "pwsh", want: "-NoProfile"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			args := shellArgs(tt.shell)
			if args[0] != tt.want {
				t.Errorf("expected first arg %q for %s, got %q", tt.want, tt.shell, args[0])
			}
		})
	}
}

func TestEnvSlice(t *testing.T) {
	got := envSlice(map[string]string{"A": "1"})
	if len(got) != 1 || got[0] != "A=1" {
		t.Errorf("expected [A=1], got %v", got)
	}
	if envSlice(nil) == nil {
		// An empty slice is fine too; just make sure append semantics hold.
		t.Log("nil env yields empty slice")
	}
}
