package models

import "time"

type PlanID string

const (
	PlanFree       PlanID = "Free"
	PlanGo         PlanID = "Go"
	PlanPlus       PlanID = "Plus"
	PlanPro        PlanID = "Pro"
	PlanTeam       PlanID = "Team"
	PlanEnterprise PlanID = "Enterprise"
)

type Style string

const (
	StyleBoldGraphic    Style = "Bold & Graphic"
	StyleTechFuturistic Style = "Tech/Futuristic"
	StyleMinimalist     Style = "Minimalist"
	StylePhotorealistic Style = "Photorealistic"
	StyleIllustrated    Style = "Illustrated"
)

type ColorScheme string

const (
	ColorVibrant    ColorScheme = "vibrant"
	ColorSunset     ColorScheme = "sunset"
	ColorForest     ColorScheme = "forest"
	ColorNeon       ColorScheme = "neon"
	ColorPurple     ColorScheme = "purple"
	ColorMonochrome ColorScheme = "monochrome"
	ColorOcean      ColorScheme = "ocean"
	ColorPastel     ColorScheme = "pastel"
)

const DefaultAspectRatio = "16:9"

// AspectRatios lists the ratios the image model accepts for thumbnails.
var AspectRatios = []string{"16:9", "9:16", "1:1", "4:3", "3:4", "3:2", "2:3", "4:5", "5:4"}

const (
	PaymentStatusCreated = "created"
	PaymentStatusPaid    = "paid"
)

type User struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	CreditBalance int       `json:"creditBalance"`
	Plan          PlanID    `json:"plan"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Thumbnail struct {
	ID           string      `json:"_id"`
	UserID       string      `json:"userId"`
	Title        string      `json:"title"`
	UserPrompt   string      `json:"user_prompt,omitempty"`
	PromptUsed   string      `json:"prompt_used,omitempty"`
	Style        Style       `json:"style"`
	AspectRatio  string      `json:"aspect_ratio"`
	ColorScheme  ColorScheme `json:"color_scheme,omitempty"`
	TextOverlay  bool        `json:"text_overlay"`
	IsGenerating bool        `json:"isGenerating"`
	ImageURL     string      `json:"image_url,omitempty"`
	ImageKey     string      `json:"-"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type Payment struct {
	ID                string
	UserID            string
	Plan              PlanID
	Provider          string
	ProviderOrderID   string
	ProviderPaymentID string
	Currency          string
	Amount            int
	Status            string
	RawPayload        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Plan is a catalogue entry. Price is in whole rupees; the gateway is billed
// in minor units.
type Plan struct {
	ID      PlanID `json:"id"`
	Price   int    `json:"price"`
	Credits int    `json:"credits"`
}

func (p Plan) AmountMinorUnits() int {
	return p.Price * 100
}

func (p Plan) IsFree() bool {
	return p.Price == 0
}
