// Package interp fits one-dimensional interpolants to tabulated data and
// evaluates, differentiates and integrates them over the data range.
//
// The fitting itself is delegated to gonum's interp package. This package
// adds input validation, strict domain checks and batch evaluation.
package interp
