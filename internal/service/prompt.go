package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/digkill/thumblify/internal/models"
)

var stylePhrases = map[models.Style]string{
	models.StyleBoldGraphic:    "eye-catching thumbnail, bold typography, vibrant colors, expressive facial reaction, dramatic lighting, high contrast, click-worthy composition, professional style",
	models.StyleTechFuturistic: "futuristic thumbnail, sleek modern design, digital UI elements, glowing accents, holographic effects, cyber-tech aesthetic, sharp lighting, high-tech atmosphere",
	models.StyleMinimalist:     "minimalist thumbnail, clean layout, simple shapes, limited color palette, plenty of negative space, modern flat design, clear focal point",
	models.StylePhotorealistic: "photorealistic thumbnail, ultra-realistic lighting, natural skin tones, candid moment, DSLR-style photography, lifestyle realism, shallow depth of field",
	models.StyleIllustrated:    "illustrated thumbnail, custom digital illustration, stylized characters, bold outlines, vibrant colors, creative cartoon or vector art style",
}

var colorPhrases = map[models.ColorScheme]string{
	models.ColorVibrant:    "vibrant and energetic colors, high saturation, bold contrasts, eye-catching palette",
	models.ColorSunset:     "warm sunset tones, orange pink and purple hues, soft gradients, cinematic glow",
	models.ColorForest:     "natural green tones, earthy colors, calm and organic palette, fresh atmosphere",
	models.ColorNeon:       "neon glow effects, electric blues and pinks, cyberpunk lighting, high contrast glow",
	models.ColorPurple:     "purple-dominant color palette, magenta and violet tones, modern and stylish mood",
	models.ColorMonochrome: "black and white color scheme, high contrast, dramatic lighting, timeless aesthetic",
	models.ColorOcean:      "cool blue and teal tones, aquatic color palette, fresh and clean atmosphere",
	models.ColorPastel:     "soft pastel colors, low saturation, gentle tones, calm and friendly aesthetic",
}

func IsValidStyle(style string) bool {
	_, ok := stylePhrases[models.Style(style)]
	return ok
}

func IsValidColorScheme(scheme string) bool {
	_, ok := colorPhrases[models.ColorScheme(scheme)]
	return ok
}

func IsValidAspectRatio(ratio string) bool {
	return slices.Contains(models.AspectRatios, ratio)
}

// BuildPrompt turns a generation request into the text sent to the image
// model. Unknown color schemes are skipped; the style must be known.
func BuildPrompt(req GenerateRequest) string {
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = models.DefaultAspectRatio
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s for: \"%s\"", stylePhrases[req.Style], req.Title)
	if phrase, ok := colorPhrases[req.ColorScheme]; ok {
		fmt.Fprintf(&b, " Use a %s color scheme.", phrase)
	}
	if p := strings.TrimSpace(req.Prompt); p != "" {
		fmt.Fprintf(&b, " Additional details: %s.", p)
	}
	if req.TextOverlay {
		b.WriteString(" Render the title as large, legible text overlay.")
	}
	fmt.Fprintf(&b, " The thumbnail should be %s, visually stunning, and designed to maximize click-through rate. Make it bold, professional, and impossible to ignore.", aspect)
	return b.String()
}
