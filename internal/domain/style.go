package domain

// StyleOption is one entry of the fixed theme catalog.
type StyleOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

const DefaultStyleID = "fun"

var styleCatalog = []StyleOption{
	{ID: "fun", Name: "Fun", Emoji: "🤣"},
	{ID: "tech", Name: "Tech", Emoji: "💻"},
	{ID: "power", Name: "Power", Emoji: "⚡️"},
	{ID: "curiosity", Name: "Curiosity", Emoji: "🤔"},
	{ID: "vintage", Name: "Vintage", Emoji: "📜"},
	{ID: "futuristic", Name: "Futuristic", Emoji: "🚀"},
}

// Styles returns a copy of the catalog in display order.
func Styles() []StyleOption {
	out := make([]StyleOption, len(styleCatalog))
	copy(out, styleCatalog)
	return out
}

// LookupStyle reports the catalog entry for id.
func LookupStyle(id string) (StyleOption, bool) {
	for _, s := range styleCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return StyleOption{}, false
}
