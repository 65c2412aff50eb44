package normalize

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/novamedix/catalog-images/internal/schemas"
	profileschema "github.com/novamedix/catalog-images/schemas"
)

// DefaultPlaceholder is the search key used when a product has no name at all.
const DefaultPlaceholder = "medicamento"

// ModeRules holds the tokenization rules for one normalizer mode.
type ModeRules struct {
	TokenPattern    string `json:"token_pattern"`
	MaxTokens       int    `json:"max_tokens"`
	DropDosageCodes bool   `json:"drop_dosage_codes,omitempty"`
	Placeholder     string `json:"placeholder,omitempty"`
}

// Profile is the locale-specific configuration of the normalizer.
type Profile struct {
	NoiseWords   []string  `json:"noise_words"`
	MinKeyLength int       `json:"min_key_length"` // Keys this short fall back to the first word; 0 keeps any non-empty key
	Terse        ModeRules `json:"terse"`
	Precision    ModeRules `json:"precision"`
}

// DefaultProfile returns the built-in profile for Mexican pharmacy catalogs:
// packaging and unit abbreviations plus short Spanish stopwords.
func DefaultProfile() Profile {
	return Profile{
		NoiseWords: []string{
			"FCO", "FCOS", "TAB", "TABS", "CAP", "CAPS", "SOL", "SOLN",
			"JBE", "AMP", "SUSP", "CRA", "UNG", "OFT", "INY",
			"SPRAY", "POLVO", "SOBRES", "SOBRE", "PZA", "PZS",
			"ML", "MG", "GR", "KG", "LT", "OZ", "CM", "MM",
			"C", "CON", "DE", "EL", "EN", "LA", "LAS", "LOS", "UN", "UNA",
			"X", "Y", "POR", "DX",
		},
		MinKeyLength: 2,
		Terse: ModeRules{
			TokenPattern:    `\p{L}+`,
			MaxTokens:       3,
			DropDosageCodes: true,
			Placeholder:     DefaultPlaceholder,
		},
		Precision: ModeRules{
			TokenPattern: `[\p{L}\d]+(?:[.\-][\p{L}\d]+)*`,
			MaxTokens:    6,
		},
	}
}

// Rules returns the rules for the given mode.
func (p Profile) Rules(mode Mode) ModeRules {
	if mode == ModePrecision {
		return p.Precision
	}
	return p.Terse
}

// LoadProfile reads a profile from a JSON file and validates it against the profile schema.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read normalizer profile %s: %w", path, err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates a JSON profile document.
func ParseProfile(data []byte) (Profile, error) {
	if err := schemas.ValidateBytes(profileschema.NormalizerProfile, data); err != nil {
		return Profile{}, fmt.Errorf("invalid normalizer profile: %w", err)
	}

	p := Profile{MinKeyLength: DefaultProfile().MinKeyLength}
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse normalizer profile: %w", err)
	}
	return p, nil
}
