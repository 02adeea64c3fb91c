package source

import (
	"context"
	"slices"

	"github.com/okian/followrank/internal/domain/model"
)

// Static serves a fixed entity list.
type Static struct {
	name     string
	entities []model.RankedEntity
}

// NewStatic creates a source that always returns a copy of entities.
func NewStatic(name string, entities []model.RankedEntity) *Static {
	return &Static{name: name, entities: slices.Clone(entities)}
}

// Name implements Source.
func (s *Static) Name() string { return s.name }

// Fetch implements Source.
func (s *Static) Fetch(ctx context.Context) ([]model.RankedEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := slices.Clone(s.entities)
	if out == nil {
		out = []model.RankedEntity{}
	}
	return out, nil
}

// Builtin returns the demonstration data set used when no upstream is configured.
func Builtin() *Static {
	return NewStatic("builtin", BuiltinAccounts())
}

// Empty returns a source with no entities.
func Empty() *Static {
	return NewStatic("empty", nil)
}

// BuiltinAccounts is the twelve-account demonstration data set.
func BuiltinAccounts() []model.RankedEntity {
	return Entities([]Record{
		{ID: "1", Username: "tanaka_misaki", StoreName: "田中美咲", Followers: 2_500_000, Popularity: 95, Region: "tokyo"},
		{ID: "2", Username: "sato_kenta", StoreName: "佐藤健太", Followers: 1_800_000, Popularity: 88, Region: "osaka"},
		{ID: "3", Username: "yamada_hanako", StoreName: "山田花子", Followers: 1_500_000, Popularity: 82, Region: "kyoto"},
		{ID: "4", Username: "suzuki_taro", StoreName: "鈴木太郎", Followers: 1_200_000, Popularity: 79, Region: "nagoya"},
		{ID: "5", Username: "takahashi_ai", StoreName: "高橋愛", Followers: 980_000, Popularity: 75, Region: "fukuoka"},
		{ID: "6", Username: "ito_naoki", StoreName: "伊藤直樹", Followers: 850_000, Popularity: 71, Region: "sapporo"},
		{ID: "7", Username: "watanabe_miho", StoreName: "渡辺美穂", Followers: 720_000, Popularity: 68, Region: "tokyo"},
		{ID: "8", Username: "nakamura_masato", StoreName: "中村雅人", Followers: 650_000, Popularity: 65, Region: "osaka"},
		{ID: "9", Username: "kobayashi_sakura", StoreName: "小林さくら", Followers: 580_000, Popularity: 62, Region: "kyoto"},
		{ID: "10", Username: "kato_sho", StoreName: "加藤翔", Followers: 520_000, Popularity: 58, Region: "nagoya"},
		{ID: "11", Username: "yoshida_mai", StoreName: "吉田麻衣", Followers: 480_000, Popularity: 55, Region: "fukuoka"},
		{ID: "12", Username: "matsumoto_daisuke", StoreName: "松本大輔", Followers: 420_000, Popularity: 52, Region: "sapporo"},
	})
}
