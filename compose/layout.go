package compose

// Page geometry, A4 landscape, millimeters. These values together with font
// sizes and palette define how book looks, change with care.
const (
	PageWidth  = 297.0
	PageHeight = 210.0

	Margin       = 18.0
	BarHeight    = 5.0
	BorderInset  = 8.0
	BorderRadius = 3.0
	BorderWidth  = 0.4

	ShadowOffset = 2.0
	MatPadding   = 2.5

	OrnamentWidth      = 60.0
	OrnamentDiamond    = 1.6
	OrnamentLineWidth  = 0.4
	ornamentDiamondGap = 4.0
)

// Font sizes, points.
const (
	CoverTitleSize   = 30.0
	CoverBodySize    = 12.0
	PageTitleSize    = 20.0
	BodySize         = 11.0
	TagSize          = 8.0
	PageNumberSize   = 9.0
	CaptionSize      = 9.0
	BackTitleSize    = 18.0
	BackHeadingSize  = 12.0
	maxTitleLines    = 3
	maxCoverLines    = 3
	maxBackCoverBody = 5
	minBodyLines     = 3
)

// Cover.
const (
	coverLogoX        = 14.0
	coverLogoY        = 14.0
	coverLogoSize     = 16.0
	coverImageW       = 150.0
	coverImageH       = 92.0
	coverImageY       = 22.0
	coverTitleY       = 127.0
	coverTitleLead    = 11.5
	coverTitleWidth   = 200.0
	coverOrnamentGap  = 8.0
	coverBodyGap      = 9.0
	coverBodyLead     = 6.0
	coverBodyWidth    = 180.0
	coverCaptionInset = 14.0
)

// Content page.
const (
	Gutter        = 12.0
	contentTop    = 22.0
	contentImageH = 150.0
	textPad       = 6.0
	textTop       = 28.0
	tagHeight     = 6.5
	tagPadX       = 3.0
	tagBaseline   = 4.6
	tagGap        = 4.0
	titleLead     = 8.5
	accentGap     = 4.0
	accentLength  = 24.0
	accentWidth   = 0.8
	bodyLead      = 5.5
	bodyBottom    = 180.0
	footerY       = PageHeight - 12.0
	dotsY         = PageHeight - 13.0
	dotRadius     = 0.8
	dotSpacing    = 4.0
)

// Back cover.
const (
	backOrnamentY   = 18.0
	backImageW      = 110.0
	backImageH      = 62.0
	backImageY      = 26.0
	backTitleY      = 102.0
	backTitleLead   = 8.0
	backTitleWidth  = 200.0
	backBodyGap     = 3.0
	backBodyWidth   = 170.0
	backOrnamentGap = 7.0
	backOrnamentMax = 160.0
	backLogoSize    = 10.0
	backLogoY       = 166.0
	backHeadingY    = 184.0
	backCaptionY    = 191.0
)

// Palette.
var (
	ColorCream  = Color{253, 251, 245}
	ColorTeal   = Color{0, 168, 168}
	ColorGold   = Color{232, 168, 56}
	ColorInk    = Color{40, 40, 40}
	ColorMuted  = Color{110, 110, 110}
	ColorLight  = Color{200, 200, 200}
	ColorWhite  = Color{255, 255, 255}
	ColorShadow = Color{218, 212, 200}
	ColorHaze   = Color{236, 232, 224}
)

// contentWidth is width of area between margins.
const contentWidth = PageWidth - 2*Margin

// zoneWidth is width of each of two content page zones.
const zoneWidth = (contentWidth - Gutter) / 2

// textWidth is usable width of text zone.
const textWidth = zoneWidth - 2*textPad
