// Package shadervariants compiles every keyword variant of a shader
// description.
//
// A description names one or more passes. Each pass holds the source of its
// stages and declares variant axes: rows of mutually exclusive keywords. The
// Cartesian product of a pass's axes is its set of variants. Every variant is
// compiled with its keywords defined in the stage preamble, linked, and
// optionally cross-compiled or written out as SPIR-V.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	shadervariants/          Root package with the module version
//	├── asset/               Shader description parser
//	├── variant/             Odometer-order enumeration of keyword axes
//	├── keyword/             Keyword registry, hashing and compile units
//	├── engine/              Program table and shading engine facade
//	├── backend/             Compiler interface implemented by shading backends
//	│   ├── nagabackend/     WGSL compiler built on naga
//	│   └── backendtest/     Scripted compiler for tests
//	├── spirv/               SPIR-V word buffer, file codec and disassembler
//	├── book/                Word-level comparison of variants against a base
//	├── build/               Variant build driver
//	├── config/              YAML configuration
//	├── resource/            Generational handle arena
//	├── errors/              Structured error types
//	└── cmd/shadervariants/  Command-line interface
//
// # Quick Start
//
// Build every variant of a description:
//
//	e, err := engine.New(nagabackend.New(naga.DefaultOptions()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//
//	a, err := asset.ParseFile("lit.shader")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := build.New(e, build.Options{OutDir: "out", WriteSpirv: true}).Run(ctx, a)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ok, failed, _ := res.Counts()
//
// # Error Handling
//
// Errors are *errors.Error values carrying the phase and kind of the failure.
// Compile and link failures of a single variant are recoverable and recorded
// in the build result. Misuse of the keyword scope and a backend that stops
// running are fatal: the engine refuses further work until it is closed.
//
//	if errors.IsFatal(err) {
//	    // the engine is poisoned
//	}
package shadervariants

// Version is the module version reported by the command.
const Version = "0.1.0"
