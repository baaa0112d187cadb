package entrypoint

// State is the progress of one invocation through the adapter.
//
//	Idle -> Decoding -> Invoking -> Encoding -> Returned
//
// Any step may move to Aborted instead. Returned and Aborted are terminal.
type State int

const (
	Idle State = iota
	Decoding
	Invoking
	Encoding
	Returned
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Decoding:
		return "decoding"
	case Invoking:
		return "invoking"
	case Encoding:
		return "encoding"
	case Returned:
		return "returned"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}
