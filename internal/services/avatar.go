package services

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/yungbote/skillsync-backend/internal/platform/logger"
)

// AvatarService renders a fallback profile picture for users whose profile
// row has none: their initials on a colored disc. The color is derived from
// the user id so the same user always gets the same avatar.
type AvatarService interface {
	GenerateUserAvatar(userID, name string) (bytes.Buffer, error)
}

type avatarService struct {
	log      *logger.Logger
	bgColors []color.NRGBA
	fontFace font.Face
}

var defaultAvatarColors = []color.NRGBA{
	{R: 0x2D, G: 0x6A, B: 0x4F, A: 0xFF},
	{R: 0x1D, G: 0x4E, B: 0x89, A: 0xFF},
	{R: 0x9D, G: 0x4E, B: 0xDD, A: 0xFF},
	{R: 0xC9, G: 0x48, B: 0x4C, A: 0xFF},
	{R: 0xE8, G: 0x7A, B: 0x00, A: 0xFF},
	{R: 0x00, G: 0x81, B: 0x8A, A: 0xFF},
	{R: 0x6D, G: 0x59, B: 0x7A, A: 0xFF},
	{R: 0x3A, G: 0x5A, B: 0x40, A: 0xFF},
}

func NewAvatarService(log *logger.Logger) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontPath := os.Getenv("AVATAR_FONT")
	if strings.TrimSpace(fontPath) == "" {
		return nil, fmt.Errorf("env var AVATAR_FONT is empty")
	}
	serviceLog.Info("loading avatar font", "font", fontPath)

	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:      serviceLog,
		bgColors: defaultAvatarColors,
		fontFace: face,
	}, nil
}

func (as *avatarService) GenerateUserAvatar(userID, name string) (bytes.Buffer, error) {
	const size = 512

	dc := gg.NewContext(size, size)

	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	dc.SetColor(as.colorFor(userID))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initials := computeInitials(name)

	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(size)/2, float64(size)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (as *avatarService) colorFor(userID string) color.NRGBA {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return as.bgColors[h.Sum32()%uint32(len(as.bgColors))]
}

// computeInitials takes the first letter of the first two words of the
// display name, or "?" when the name is empty.
func computeInitials(name string) string {
	fields := strings.Fields(name)
	var b strings.Builder
	for i, f := range fields {
		if i == 2 {
			break
		}
		r := []rune(f)[0]
		b.WriteRune(unicode.ToUpper(r))
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
