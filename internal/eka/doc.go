// Package eka holds the hardware-agnostic building blocks of a QEC program:
// channels, tick-scheduled circuits, the stabilizer/block algebra, and the
// closed set of logical operations that a program is composed of.
//
// Everything in this package is plain data plus constructor validation.
// Interpretation (turning operations into a scheduled physical circuit and a
// decoding graph) lives in package interp.
package eka
