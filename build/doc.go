// Package build compiles every keyword variant of a shader description.
//
// For each pass the driver first compiles and links the base stages with no
// added keywords. A pass whose base does not link is skipped. Then every
// coordinate of the pass's axes is built in odometer order:
//
//  1. create a program and add the coordinate's keywords to it
//  2. recompile each base stage under those keywords
//  3. attach the recompiled stages and link
//  4. fetch the SPIR-V of each stage and write the requested artifacts
//
// Compile and link failures are recorded on the variant and the loop moves
// on. A fatal engine error stops the build.
package build
