package scatha

import "testing"

func TestCompileAndRunHelloArithmetic(t *testing.T) {
	engine, err := New(WithOptLevel(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	artifact, err := engine.Compile(BuildDemoProgram(DemoHelloArithmetic))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	regs, err := engine.Run(artifact, "", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if regs[0] != 14 {
		t.Errorf("r0 = %d, want 14", regs[0])
	}
}

func TestCompileAndRunLoopSum(t *testing.T) {
	engine, err := New(WithOptLevel(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	artifact, err := engine.Compile(BuildDemoProgram(DemoLoopSum))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	regs, err := engine.Run(artifact, "", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if regs[0] != 10 {
		t.Errorf("r0 = %d, want 10", regs[0])
	}
}

func TestCompileAndRunShortCircuitDoesNotTrap(t *testing.T) {
	engine, err := New(WithOptLevel(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	artifact, err := engine.Compile(BuildDemoProgram(DemoShortCircuit))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	regs, err := engine.Run(artifact, "", nil)
	if err != nil {
		t.Fatalf("Run (short-circuit should not divide by zero): %v", err)
	}
	if regs[0] != 1 {
		t.Errorf("r0 = %d, want 1 (true)", regs[0])
	}
}

func TestCompileAndRunStructLifetime(t *testing.T) {
	engine, err := New(WithOptLevel(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	artifact, err := engine.Compile(BuildDemoProgram(DemoStructLifetime))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	regs, err := engine.Run(artifact, "", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if regs[0] != 14 {
		t.Errorf("r0 = %d, want 14 (3+4 summed twice)", regs[0])
	}
}

func TestCompileWithOptLevel2RunsLoopPasses(t *testing.T) {
	engine, err := New(WithOptLevel(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	artifact, err := engine.Compile(BuildDemoProgram(DemoLoopSum))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	regs, err := engine.Run(artifact, "", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if regs[0] != 10 {
		t.Errorf("r0 = %d, want 10 (optimizer must preserve semantics)", regs[0])
	}
}

func TestNewRejectsNegativeOptLevel(t *testing.T) {
	if _, err := New(WithOptLevel(-1)); err == nil {
		t.Fatal("expected an error for a negative OptLevel")
	}
}

func TestArtifactAssemblyIsNonEmpty(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	artifact, err := engine.Compile(BuildDemoProgram(DemoHelloArithmetic))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if artifact.Assembly() == "" {
		t.Error("Assembly() returned an empty listing")
	}
	if artifact.Target() != "stack-vm" {
		t.Errorf("Target() = %q, want %q", artifact.Target(), "stack-vm")
	}
}
