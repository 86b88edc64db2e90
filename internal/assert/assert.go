// Package assert provides debug-only invariant checks.
//
// Release builds must behave as if these asserts were absent; build with
// -tags chesscore_debug to enable them (see assert_debug.go / assert_release.go).
package assert
