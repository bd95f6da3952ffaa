// @lixen: #focus{sys[term]}
// Package terminal drives an xterm-compatible terminal with raw ANSI output.
//
// Features:
//   - True color (24-bit) output with 256-color fallback
//   - Double-buffered output with cell-level diffing
//   - Raw stdin input parsing for the few keys a viewer needs
//   - SIGWINCH resize detection
//   - Clean terminal restoration on exit/panic
//
// No terminfo lookup is done; sequences are emitted directly.
package terminal
