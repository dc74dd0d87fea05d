// Package tui renders the player in a terminal with Bubble Tea.
package tui
