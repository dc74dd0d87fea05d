// Package ui is the fyne desktop window: a header, the song list and a player bar
// bound to a playback controller. It only sends intents and renders snapshots;
// all playback decisions stay in the controller.
package ui
