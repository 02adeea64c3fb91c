package ranking_test

import (
	"strconv"

	"github.com/okian/followrank/internal/domain/model"
)

// accounts returns the twelve demonstration accounts in an order that is not
// already sorted by follower count.
func accounts() []model.RankedEntity {
	return []model.RankedEntity{
		{ID: "7", DisplayName: "watanabe_miho", MetricValue: 720_000, Category: "tokyo"},
		{ID: "2", DisplayName: "sato_kenta", MetricValue: 1_800_000, Category: "osaka"},
		{ID: "12", DisplayName: "matsumoto_daisuke", MetricValue: 420_000, Category: "sapporo"},
		{ID: "1", DisplayName: "tanaka_misaki", MetricValue: 2_500_000, Category: "tokyo"},
		{ID: "9", DisplayName: "kobayashi_sakura", MetricValue: 580_000, Category: "kyoto"},
		{ID: "4", DisplayName: "suzuki_taro", MetricValue: 1_200_000, Category: "nagoya"},
		{ID: "11", DisplayName: "yoshida_mai", MetricValue: 480_000, Category: "fukuoka"},
		{ID: "3", DisplayName: "yamada_hanako", MetricValue: 1_500_000, Category: "kyoto"},
		{ID: "6", DisplayName: "ito_naoki", MetricValue: 850_000, Category: "sapporo"},
		{ID: "10", DisplayName: "kato_sho", MetricValue: 520_000, Category: "nagoya"},
		{ID: "5", DisplayName: "takahashi_ai", MetricValue: 980_000, Category: "fukuoka"},
		{ID: "8", DisplayName: "nakamura_masato", MetricValue: 650_000, Category: "osaka"},
	}
}

// rankedIDs returns the ids of accounts() in expected descending order.
func rankedIDs() []string {
	return []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}
}

func ids(entities []model.RankedEntity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}

func synthetic(n int, category func(i int) string, metric func(i int) int64) []model.RankedEntity {
	out := make([]model.RankedEntity, n)
	for i := range out {
		out[i] = model.RankedEntity{
			ID:          strconv.Itoa(i + 1),
			DisplayName: "user_" + strconv.Itoa(i+1),
			MetricValue: metric(i),
			Category:    category(i),
		}
	}
	return out
}

func mustSnapshot(entities []model.RankedEntity) *model.Snapshot {
	s, err := model.NewSnapshot("test", entities)
	if err != nil {
		panic(err)
	}
	return s
}
