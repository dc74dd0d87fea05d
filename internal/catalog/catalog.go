package catalog

import (
	"embed"
	"errors"
	"io/fs"

	"github.com/samber/lo"
)

//go:embed assets/*.wav
var assets embed.FS

// ResourceID names a bundled audio asset inside Assets().
type ResourceID string

// Song is an immutable playlist entry. Two songs are the same song when all fields match.
type Song struct {
	Title    string
	Artist   string
	Resource ResourceID
}

var ErrNotFound = errors.New("song not in catalog")

var songs = []Song{
	{Title: "WW3", Artist: "Ye", Resource: "assets/ww3.wav"},
	{Title: "HH", Artist: "Ye", Resource: "assets/hh.wav"},
	{Title: "Cousins", Artist: "Ye", Resource: "assets/cousins.wav"},
}

// Songs returns a copy of the fixed playlist in display order.
func Songs() []Song {
	out := make([]Song, len(songs))
	copy(out, songs)
	return out
}

// Assets exposes the bundled audio files. Resource IDs are paths inside this FS.
func Assets() fs.FS { return assets }

// IndexOf returns the position of s in list, or ErrNotFound.
func IndexOf(list []Song, s Song) (int, error) {
	i := lo.IndexOf(list, s)
	if i < 0 {
		return -1, ErrNotFound
	}
	return i, nil
}

// NextIndex and PrevIndex wrap around both ends of a list of n songs.
func NextIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return mod(i+1, n)
}

func PrevIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return mod(i-1+n, n)
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
