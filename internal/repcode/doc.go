// Package repcode implements the distance-d repetition code on a linear
// chain of qubits: the code factory producing blocks, and the applicator
// set covering the full operation vocabulary (syndrome measurement,
// logical measurement and application, resets, grow, shrink, merge and
// split).
//
// Data qubits sit at (x, 0, 0) and the ancilla checking qubits x and x+1
// sits at (x, 1, 0). A "Z" chain (bitflip code) carries ZZ checks, a
// single-qubit logical Z and a chain-wide logical X; an "X" chain
// (phaseflip code) is the dual.
package repcode
