package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registeredPass() {}

func registeredErr() error { return nil }

func TestRegistry_AddTest(t *testing.T) {
	reg := NewRegistry()
	reg.AddTest(&Test{Func: registeredPass})
	reg.AddTest(&Test{FuncErr: registeredErr, Mode: Skip})

	require.Empty(t, reg.Errors())
	tests := reg.Tests()
	require.Len(t, tests, 2)

	assert.Equal(t, "ktest/harness.registeredPass", tests[0].QualifiedName())
	assert.Equal(t, "ktest/harness.registeredErr", tests[1].QualifiedName())
	assert.Equal(t, "ktest/harness", ModuleOf(tests[0]))
	assert.Equal(t, Skip, tests[1].Ignore())

	loc := location(tests[0])
	assert.True(t, strings.Contains(loc, "registry_test.go:"), "unexpected location %q", loc)
}

func TestRegistry_ExplicitNames(t *testing.T) {
	reg := NewRegistry()
	reg.AddTest(&Test{Func: registeredPass, Module: "kernel/mm", Name: "TestAlloc"})

	tests := reg.Tests()
	require.Len(t, tests, 1)
	assert.Equal(t, "kernel/mm.TestAlloc", tests[0].QualifiedName())
}

func TestRegistry_Errors(t *testing.T) {
	tests := []struct {
		name  string
		test  *Test
		error string
	}{
		{name: "no body", test: &Test{Name: "T"}, error: "test has no body"},
		{name: "two bodies", test: &Test{Func: registeredPass, FuncErr: registeredErr}, error: "both Func and FuncErr are set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.AddTest(tt.test)

			assert.Empty(t, reg.Tests())
			require.Len(t, reg.Errors(), 1)
			assert.Contains(t, reg.Errors()[0].Error(), tt.error)
		})
	}
}

func TestRegistry_Sealed(t *testing.T) {
	reg := NewRegistry()
	reg.AddTest(&Test{Func: registeredPass})
	first := reg.Tests()

	reg.AddTest(&Test{Func: registeredPass, Name: "late"})

	assert.Len(t, reg.Tests(), len(first))
	require.Len(t, reg.Errors(), 1)
	assert.Contains(t, reg.Errors()[0].Error(), "registered after the run started")
}

func TestGlobalRegistry(t *testing.T) {
	reg := NewRegistry()
	restore := SetGlobalRegistryForTesting(reg)
	defer restore()

	AddTest(&Test{Func: registeredPass})

	assert.Same(t, reg, GlobalRegistry())
	require.Len(t, reg.Tests(), 1)
	assert.Contains(t, location(reg.Tests()[0]), "registry_test.go:")
}

func TestSplitQualifiedName(t *testing.T) {
	tests := []struct {
		input  string
		module string
		name   string
	}{
		{input: "example.com/kernel/mm.TestAlloc", module: "example.com/kernel/mm", name: "TestAlloc"},
		{input: "main.TestBoot", module: "main", name: "TestBoot"},
		{input: "TestBoot", module: "", name: "TestBoot"},
		{input: "ktest/harness.TestX.func1", module: "ktest/harness.TestX", name: "func1"},
		{input: "", module: "", name: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			module, name := SplitQualifiedName(tt.input)
			if module != tt.module || name != tt.name {
				t.Errorf("expected (%q, %q), got (%q, %q)", tt.module, tt.name, module, name)
			}
		})
	}
}

func TestSplitModulePath(t *testing.T) {
	assert.Nil(t, SplitModulePath(""))
	assert.Equal(t, []string{"example.com", "kernel", "mm"}, SplitModulePath("example.com/kernel/mm"))
}
