// Package ui renders the terminal output of the mhacwifi command.
//
// Commands print a Header describing what is about to happen, then a Result
// box (success, failure or warning) or a Table of data points. Failures carry
// the troubleshooting hints produced by the acwm package.
//
// WatchModel is the only interactive component: a Bubble Tea program that
// polls a unit and redraws its characteristics.
//
// Logging goes to stderr and is disabled unless MHACWIFI_LOG_LEVEL is set,
// so it never interleaves with this package's output.
package ui
