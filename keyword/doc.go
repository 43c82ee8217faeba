// Package keyword implements the keyword table that drives variant compiles.
//
// Keywords are compile-time symbols identified by the 64-bit FNV-1a hash of
// their name. The state is split in two:
//
//   - Registry holds reserved keywords and globally enabled keywords. It is
//     shared, lock-protected state.
//   - Scope holds one engine's scoped enables and the keywords added to the
//     current compile unit.
//
// A keyword must be reserved before it can be enabled or disabled. Keywords
// are added to a unit before its first compile; that compile seals the unit
// into a Unit whose ID names the combination:
//
//	reg := keyword.NewRegistry()
//	scope := keyword.NewScope(reg)
//	scope.Add("LIT")
//	unit, _ := scope.Seal()   // first compile
//	preamble := unit.Defines() // "#define LIT\n"
//	scope.Reset()              // link
package keyword
