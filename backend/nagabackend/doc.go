// Package nagabackend implements backend.Compiler with github.com/gogpu/naga.
//
// Stage sources are WGSL. Before parsing, the preamble is prepended and a
// small preprocessor evaluates #define/#undef/#ifdef/#ifndef/#else/#endif,
// which is how keyword variants select code:
//
//	#ifdef LIT
//	    color = color * light(n);
//	#endif
//
// Each compiled stage keeps its lowered IR module. Linking generates one
// SPIR-V module per stage that holds only that stage's entry points, and
// Decompile cross-compiles the linked stages to GLSL, HLSL or MSL.
package nagabackend
