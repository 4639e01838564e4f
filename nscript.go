// Package nscript is the root embedding surface (spec.md §6 "External
// Interfaces"): parse and run source text, read/write globals, register
// host modules, call script functions, and inspect errors/stack traces.
// Structurally this plays the role the teacher's root package plays for
// WebAssembly (wazero.NewRuntime / RuntimeConfig / ModuleConfig): a small
// clone-on-write Config builder plus a Runtime that owns the actual
// engine state (here internal/vm.Env instead of a wasm.Store).
package nscript

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ChandruSu/nscript/api"
	"github.com/ChandruSu/nscript/internal/compiler"
	"github.com/ChandruSu/nscript/internal/parser"
	"github.com/ChandruSu/nscript/internal/source"
	"github.com/ChandruSu/nscript/internal/vm"
)

// ScratchResultName is the reserved global EvalLine mirrors a trailing
// expression's value into, re-exported so host code (a REPL loop) can
// read it back via GetGlobal without importing internal/vm.
const ScratchResultName = vm.ScratchGlobalName

// Config configures a Runtime before it is built. Each With* method
// returns a new Config, leaving the receiver untouched, matching the
// teacher's RuntimeConfig.clone() convention (config.go).
type Config struct {
	args   []string
	stdout io.Writer
	log    *logrus.Entry
}

// NewConfig returns the default configuration: no script args, stdout
// discarded, logging at its logrus default.
func NewConfig() *Config {
	return &Config{stdout: io.Discard}
}

func (c *Config) clone() *Config {
	cp := *c
	return &cp
}

// WithArgs sets the vector the `std` module's `args()` exposes to scripts
// (spec.md §6 "script-visible CLI argument vector").
func (c *Config) WithArgs(args ...string) *Config {
	cp := c.clone()
	cp.args = args
	return cp
}

// WithStdout sets where the `std` module's print/println write.
func (c *Config) WithStdout(w io.Writer) *Config {
	cp := c.clone()
	cp.stdout = w
	return cp
}

// WithLogger overrides the structured logger used for VM dispatch and GC
// tracing (spec.md §9's ambient observability, carried regardless of any
// core-language Non-goal).
func (c *Config) WithLogger(log *logrus.Entry) *Config {
	cp := c.clone()
	cp.log = log
	return cp
}

// Runtime owns one nscript Env: its globals, heap, segment table and
// registered modules persist across every Eval/Call made against it,
// exactly like a script REPL session (spec.md §6 "Evaluate a source file
// or string" / "REPL result smuggling").
type Runtime struct {
	env *vm.Env
}

// NewRuntime builds a Runtime from cfg (nil means NewConfig()).
func NewRuntime(cfg *Config) *Runtime {
	if cfg == nil {
		cfg = NewConfig()
	}
	env := vm.New(cfg.args, cfg.log)
	if cfg.stdout != nil {
		env.Stdout = cfg.stdout
	}
	return &Runtime{env: env}
}

// RegisterModule binds a host module so scripts can reach it via
// `import("name")` (spec.md §6 "register_module").
func (r *Runtime) RegisterModule(def api.ModuleDef) {
	r.env.RegisterModule(def)
}

// SetGlobal and GetGlobal expose the host-writable/readable global table
// (spec.md §6 "Read/write named globals").
func (r *Runtime) SetGlobal(name string, v api.Value) { r.env.SetGlobal(name, v) }

func (r *Runtime) GetGlobal(name string) (api.Value, bool) { return r.env.GetGlobal(name) }

// Eval parses, compiles and runs src as the program of this Runtime
// (spec.md §6 "Evaluate a source file or string"). Call it once per
// Runtime — it compiles into segment 0 and Run always executes segment 0
// from its first instruction, so a second Eval call would re-run every
// statement from the first. For incremental, REPL-style evaluation of one
// line at a time against a live global scope, use EvalLine instead.
func (r *Runtime) Eval(name, src string) (api.Value, error) {
	r.env.Sources = source.New(name, src)
	block, err := parser.Parse(src)
	if err != nil {
		return api.Value{}, err
	}
	if err := compiler.Compile(r.env, block); err != nil {
		return api.Value{}, err
	}
	return r.env.Run()
}

// EvalLine compiles src as its own segment nested under the global scope
// and calls it immediately, leaving segment 0 untouched — safe to call
// repeatedly against the same Runtime (the REPL use case spec.md §6
// describes). Top-level `let`s inside src are scoped to this call only;
// a trailing bare expression's value is both returned and mirrored into
// the global nscript.ScratchResultName for a REPL prompt to echo.
func (r *Runtime) EvalLine(name, src string) (api.Value, error) {
	r.env.Sources = source.New(name, src)
	block, err := parser.Parse(src)
	if err != nil {
		return api.Value{}, err
	}
	fn, err := compiler.CompileSnippet(r.env, block)
	if err != nil {
		return api.Value{}, err
	}
	return r.env.Call(fn)
}

// Call invokes an already-obtained script function value (e.g. one
// fetched via GetGlobal) with the given arguments.
func (r *Runtime) Call(fn api.Value, args ...api.Value) (api.Value, error) {
	return r.env.Call(fn, args...)
}

// StackTrace renders the active call stack, newest frame first (spec.md
// §7 "render a stack trace").
func (r *Runtime) StackTrace() []string { return r.env.StackTrace() }

// CollectGarbage forces an immediate mark-and-sweep cycle, the host-side
// counterpart of the script-visible `std.gc()` native.
func (r *Runtime) CollectGarbage() { r.env.CollectGarbage() }

// Occupied reports the heap's current live-slot count, the test-visible
// introspection spec.md §8 scenario E7 needs to observe a GC cycle's
// effect from outside the VM.
func (r *Runtime) Occupied() int { return r.env.Heap.Occupied() }

// Heap exposes the heap arena as the minimal accessor Value.ToDisplay and
// Value.ToRepr need to render Array/Object contents, e.g. when a host CLI
// prints a returned Value (spec.md §4.2 "recursive rendering").
func (r *Runtime) Heap() api.HeapAccessor { return r.env.Heap }
