package scripts

import "testing"

func TestRunWithEmptyPathIsNoOp(t *testing.T) {
	if err := Run(""); err != nil {
		t.Fatalf("Run(\"\") must be a no-op, got: %v", err)
	}
}

func TestRunSyncWithEmptyPathIsNoOp(t *testing.T) {
	out, err := RunSync("")
	if err != nil {
		t.Fatalf("RunSync(\"\") must be a no-op, got: %v", err)
	}
	if out != nil {
		t.Fatalf("RunSync(\"\") output = %v, want nil", out)
	}
}

func TestRunStartsScriptWithoutError(t *testing.T) {
	if err := Run("/bin/true"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunSyncCapturesOutput(t *testing.T) {
	out, err := RunSync("/bin/echo", "hello")
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected RunSync to capture the script's stdout")
	}
}

func TestRunSyncReportsNonZeroExit(t *testing.T) {
	if _, err := RunSync("/bin/false"); err == nil {
		t.Fatal("expected an error for a script that exits non-zero")
	}
}
