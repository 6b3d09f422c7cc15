// Package scoring estimates how trustworthy a generated answer looks.
//
// The score is an uncalibrated heuristic built from surface signals in the
// answer text: citations, code blocks, length and structure, with a hard cap
// when the answer admits it lacks the information. It has never been fitted
// against ground truth. It is not a probability and should not be read as
// one; treat the weights as configuration.
package scoring
