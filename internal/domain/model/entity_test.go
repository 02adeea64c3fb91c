package model_test

import (
	"errors"
	"testing"

	"github.com/okian/followrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func entities() []model.RankedEntity {
	return []model.RankedEntity{
		{ID: "1", DisplayName: "tanaka_misaki", MetricValue: 2_500_000, Category: "tokyo"},
		{ID: "2", DisplayName: "sato_kenta", MetricValue: 1_800_000, Category: "osaka"},
		{ID: "3", DisplayName: "no_region", MetricValue: 10},
	}
}

func TestNewSnapshot(t *testing.T) {
	Convey("Given a valid entity collection", t, func() {
		in := entities()

		Convey("When building a snapshot", func() {
			snap, err := model.NewSnapshot("test", in)

			Convey("Then it succeeds and keeps source order", func() {
				So(err, ShouldBeNil)
				So(snap.Len(), ShouldEqual, 3)
				So(snap.Source(), ShouldEqual, "test")
				So(snap.Version(), ShouldNotBeEmpty)
				So(snap.LoadedAt().IsZero(), ShouldBeFalse)
				So(snap.Entities(), ShouldResemble, entities())
			})

			Convey("And mutating the input does not leak into the snapshot", func() {
				in[0].MetricValue = 0
				So(snap.Entities()[0].MetricValue, ShouldEqual, 2_500_000)
			})

			Convey("And mutating the returned copy does not leak either", func() {
				out := snap.Entities()
				out[1].DisplayName = "changed"
				So(snap.Entities()[1].DisplayName, ShouldEqual, "sato_kenta")
			})
		})

		Convey("When building two snapshots from the same data", func() {
			a, _ := model.NewSnapshot("test", in)
			b, _ := model.NewSnapshot("test", in)

			Convey("Then each gets its own version", func() {
				So(a.Version(), ShouldNotEqual, b.Version())
			})
		})
	})

	Convey("Given malformed input", t, func() {
		cases := []struct {
			name   string
			mutate func([]model.RankedEntity) []model.RankedEntity
			field  string
		}{
			{"duplicate id", func(e []model.RankedEntity) []model.RankedEntity { e[1].ID = "1"; return e }, "id"},
			{"empty id", func(e []model.RankedEntity) []model.RankedEntity { e[2].ID = ""; return e }, "id"},
			{"negative metric", func(e []model.RankedEntity) []model.RankedEntity { e[0].MetricValue = -1; return e }, "metric_value"},
			{"reserved category", func(e []model.RankedEntity) []model.RankedEntity { e[0].Category = model.AllCategories; return e }, "category"},
		}

		for _, tc := range cases {
			Convey("When the collection has a "+tc.name, func() {
				_, err := model.NewSnapshot("test", tc.mutate(entities()))

				Convey("Then a contract violation is reported", func() {
					So(err, ShouldNotBeNil)
					So(errors.Is(err, model.ErrContractViolation), ShouldBeTrue)
					var cv *model.ContractViolation
					So(errors.As(err, &cv), ShouldBeTrue)
					So(cv.Field, ShouldEqual, tc.field)
				})
			})
		}
	})

	Convey("Given no entities", t, func() {
		snap := model.EmptySnapshot()

		Convey("Then the empty snapshot is valid", func() {
			So(snap, ShouldNotBeNil)
			So(snap.Len(), ShouldEqual, 0)
			So(snap.Entities(), ShouldBeEmpty)
		})
	})
}

func TestRankedEntity_Categorized(t *testing.T) {
	Convey("Given entities with and without a category", t, func() {
		So(model.RankedEntity{Category: "kyoto"}.Categorized(), ShouldBeTrue)
		So(model.RankedEntity{}.Categorized(), ShouldBeFalse)
	})
}
