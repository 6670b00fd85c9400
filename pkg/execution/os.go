package execution

import (
	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/document"
)

// OperatingSystem is the optional consumed interface from spec.md §6.1:
// a persona that gets a chance to finish setting up a freshly made
// CpuContext/MemoryContext with process argv/envp/cwd (stack layout,
// auxv, environment strings - whatever a real OS loader would do before
// entry). Execution.Initialize calls it if one is set.
type OperatingSystem interface {
	InitializeContext(doc *document.Document, cpuCtx cpu.Context, mem cpu.Memory, argv, envp []string, cwd string) bool
}

// NoopOS satisfies OperatingSystem without doing anything, for the
// fixtures in this repo that don't model process startup - SPEC_FULL.md
// §6.1 calls this out explicitly ("a no-op OperatingSystem persona for
// the fixtures that don't need argv/envp setup").
type NoopOS struct{}

func (NoopOS) InitializeContext(*document.Document, cpu.Context, cpu.Memory, []string, []string, string) bool {
	return true
}
