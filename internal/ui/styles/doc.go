// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the artdrop storefront.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Jade - Brand color, prices, the selected card
  - Coral - Claim actions and the bot bubble border
  - Sand - Warnings and the pending-reply spinner
  - Rose - Errors

# Theme System (theme.go)

The Theme struct holds every style the storefront renders with and decides
how many catalog columns fit:

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	cols := theme.GridColumns()
*/
package styles
