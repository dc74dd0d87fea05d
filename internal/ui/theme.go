package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Accent is the highlight green used for the current song and the primary buttons.
var Accent = color.NRGBA{R: 0x1D, G: 0xB9, B: 0x54, A: 0xFF}

var (
	darkBackground = color.NRGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xFF}
	darkSurface    = color.NRGBA{R: 0x28, G: 0x28, B: 0x28, A: 0xFF}
	lightSurface   = color.NRGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}
)

// Theme is the Yetify look: near-black background, grey surfaces, green accent.
// The variant is fixed at construction so the config file decides it, not the OS.
type Theme struct {
	variant fyne.ThemeVariant
}

// NewTheme returns the dark theme unless name is "light".
func NewTheme(name string) fyne.Theme {
	if name == "light" {
		return &Theme{variant: theme.VariantLight}
	}
	return &Theme{variant: theme.VariantDark}
}

func (t *Theme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	dark := t.variant == theme.VariantDark
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus, theme.ColorNameSuccess:
		return Accent
	case theme.ColorNameBackground:
		if dark {
			return darkBackground
		}
		return color.NRGBA{R: 0xFA, G: 0xFA, B: 0xFA, A: 0xFF}
	case theme.ColorNameButton, theme.ColorNameInputBackground, theme.ColorNameHeaderBackground, theme.ColorNameMenuBackground:
		if dark {
			return darkSurface
		}
		return lightSurface
	case theme.ColorNameForeground:
		if dark {
			return color.White
		}
		return color.NRGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xFF}
	}
	return theme.DefaultTheme().Color(name, t.variant)
}

func (t *Theme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *Theme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *Theme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameHeadingText:
		return 22
	case theme.SizeNameSelectionRadius, theme.SizeNameInputRadius:
		return 6
	}
	return theme.DefaultTheme().Size(name)
}
