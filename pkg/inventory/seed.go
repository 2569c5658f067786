package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Seed is the catalog loaded at startup.
type Seed struct {
	Items     []Item
	Suppliers []Supplier
}

// DefaultSeed is the café's built-in sample catalog.
func DefaultSeed() Seed {
	return Seed{
		Items: []Item{
			{Name: "コーヒー豆", Category: "ドリンク", Current: decimal.NewFromInt(2), Threshold: decimal.NewFromInt(1), Unit: "袋", Supplier: "仕入先A", DailyUse: decimal.RequireFromString("0.5"), Note: "深煎り 1kg"},
			{Name: "パンケーキ", Category: "フード", Current: decimal.NewFromInt(15), Threshold: decimal.NewFromInt(20), Unit: "個", Supplier: "工場から", DailyUse: decimal.NewFromInt(10), Note: "冷凍"},
			{Name: "卵", Category: "フード", Current: decimal.Zero, Threshold: decimal.NewFromInt(1), Unit: "パック", Supplier: "スーパー", DailyUse: decimal.RequireFromString("0.5"), Note: "10個入り"},
			{Name: "オーツミルク", Category: "ドリンク", Current: decimal.NewFromInt(8), Threshold: decimal.NewFromInt(10), Unit: "本", Supplier: "仕入先B", DailyUse: decimal.NewFromInt(3), Note: "バリスタ用"},
			{Name: "アイスクリームスプーン", Category: "備品", Current: decimal.NewFromInt(2), Threshold: decimal.NewFromInt(1), Unit: "箱", Supplier: "備品業者", DailyUse: decimal.RequireFromString("0.2")},
		},
		Suppliers: []Supplier{
			{Name: "仕入先A"},
			{Name: "工場から"},
			{Name: "スーパー"},
			{Name: "仕入先B"},
			{Name: "備品業者"},
		},
	}
}

type seedFile struct {
	Materials []seedMaterial `mapstructure:"materials"`
	Suppliers []Supplier     `mapstructure:"suppliers"`
}

// seedMaterial keeps numbers as strings; viper's weak decoding turns YAML/TOML
// numbers into their shortest decimal text, which decimal then parses exactly.
type seedMaterial struct {
	Name      string `mapstructure:"name"`
	Category  string `mapstructure:"category"`
	Current   string `mapstructure:"current"`
	Threshold string `mapstructure:"threshold"`
	Unit      string `mapstructure:"unit"`
	Supplier  string `mapstructure:"supplier"`
	DailyUse  string `mapstructure:"daily_use"`
	Note      string `mapstructure:"note"`
}

// LoadSeedFile reads a yaml, toml or json catalog. The format follows the file extension.
func LoadSeedFile(path string) (Seed, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Seed{}, fmt.Errorf("read seed file %s: %w", path, err)
	}
	var raw seedFile
	if err := v.Unmarshal(&raw); err != nil {
		return Seed{}, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	if len(raw.Materials) == 0 {
		return Seed{}, errors.New("seed file lists no materials")
	}

	seed := Seed{Items: make([]Item, 0, len(raw.Materials))}
	for i, m := range raw.Materials {
		item, err := m.toItem()
		if err != nil {
			return Seed{}, fmt.Errorf("material %d: %w", i+1, err)
		}
		seed.Items = append(seed.Items, item)
	}
	for _, sup := range raw.Suppliers {
		sup.Name = strings.TrimSpace(sup.Name)
		if sup.Name == "" {
			return Seed{}, errors.New("supplier name is required")
		}
		sup.Method = strings.ToLower(strings.TrimSpace(sup.Method))
		sup.Contact = strings.TrimSpace(sup.Contact)
		seed.Suppliers = append(seed.Suppliers, sup)
	}
	return seed, nil
}

func (m seedMaterial) toItem() (Item, error) {
	item := Item{
		Name:     strings.TrimSpace(m.Name),
		Category: strings.TrimSpace(m.Category),
		Unit:     strings.TrimSpace(m.Unit),
		Supplier: strings.TrimSpace(m.Supplier),
		Note:     strings.TrimSpace(m.Note),
	}
	var err error
	if item.Current, err = parseQuantity("current", m.Current); err != nil {
		return Item{}, err
	}
	if item.Threshold, err = parseQuantity("threshold", m.Threshold); err != nil {
		return Item{}, err
	}
	if item.DailyUse, err = parseQuantity("daily_use", m.DailyUse); err != nil {
		return Item{}, err
	}
	if err := validateItem(item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// parseQuantity treats a missing value as zero.
func parseQuantity(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return value, nil
}
