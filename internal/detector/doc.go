// Package detector turns badge swipes into shift instances, break times and
// lateness labels. Every function here is pure: inputs are never mutated and
// the same input always yields the same output.
package detector
