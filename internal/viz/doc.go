// Package viz renders results for the terminal: styled key/value reports,
// convergence sparklines and asciigraph line plots of sampled series.
package viz
