package prompt

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"memegen/internal/domain"
)

// BaseInstruction opens every instruction sent to the image model.
const BaseInstruction = "You are a creative AI image editor. Your task is to transform the provided user image based on a specific theme. " +
	"If the user provides a text note, you MUST creatively and seamlessly integrate that text into the image. " +
	"The text should look like a natural part of the scene (e.g., graffiti, a neon sign, text on a t-shirt, a computer screen message), fitting the chosen theme. " +
	"If no text note is provided, just transform the image. Do not add any text if none is provided. " +
	"Only return the modified image as your response."

const notePrefix = "User's text note to integrate: "

var styleFragments = map[string]string{
	"fun":        "Theme: Fun. Make the image funnier and more exaggerated, in the style of a classic internet meme. Amplify expressions, add playful elements, or use a vibrant, comical color palette.",
	"tech":       "Theme: Tech. Re-imagine the image with a high-tech, cyberpunk aesthetic. Integrate glowing neon circuits, digital grids, a futuristic color palette (deep blues, purples, electric pinks), and holographic elements.",
	"power":      "Theme: Power. Make the image look powerful and epic. Use dramatic lighting, intense shadows, a bold color grade (perhaps with reds and golds), and add subtle energy effects like sparks or a faint glow to emphasize strength.",
	"curiosity":  "Theme: Curiosity. Infuse the image with a sense of wonder and curiosity. Add whimsical, magical elements like glowing particles, swirling nebulae, or mysterious symbols. Use a dreamy, ethereal color palette.",
	"vintage":    "Theme: Vintage. Give the image a retro look. Apply a faded, sepia or black-and-white tone, add film grain, light leaks, and subtle scratches to simulate an old photograph from the 1920s-1950s.",
	"futuristic": "Theme: Futuristic. Transform the image into a vision of the distant future. Think clean lines, minimalist design, advanced technology subtly integrated, and a sleek, almost sterile, color palette, like a scene from a utopian sci-fi movie.",
}

// Fragment returns the theme fragment for styleID, falling back to the default
// style for unknown ids.
func Fragment(styleID string) string {
	if f, ok := styleFragments[styleID]; ok {
		return f
	}
	return styleFragments[domain.DefaultStyleID]
}

// NormalizeNote trims surrounding whitespace and applies NFC so visually equal
// notes produce the same instruction. Text already in NFC, which is what
// keyboards and browsers send, comes back byte-for-byte after trimming.
func NormalizeNote(note string) string {
	return strings.TrimSpace(norm.NFC.String(note))
}

// Compose builds the instruction: base, style fragment and, for a non-blank
// note, the quoted note clause, separated by blank lines.
func Compose(styleID, userNote string) string {
	var b strings.Builder
	b.WriteString(BaseInstruction)
	b.WriteString("\n\n")
	b.WriteString(Fragment(styleID))
	if note := NormalizeNote(userNote); note != "" {
		b.WriteString("\n\n")
		b.WriteString(notePrefix)
		b.WriteByte('"')
		b.WriteString(note)
		b.WriteByte('"')
	}
	return b.String()
}
