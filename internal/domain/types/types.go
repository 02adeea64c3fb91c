// Package types contains the JSON shapes shared by the HTTP API and tools.
package types

import (
	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/internal/domain/ranking"
)

// Row is one ranked line of a page.
type Row struct {
	Rank           int    `json:"rank,omitempty"`
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	MetricValue    int64  `json:"metric_value"`
	Category       string `json:"category"`
	SecondaryLabel string `json:"secondary_label,omitempty"`
	ProfileURL     string `json:"profile_url,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	Popularity     int    `json:"popularity,omitempty"`
}

// Pagination describes where the current page sits.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// View is the renderable state for one request.
type View struct {
	SnapshotVersion  string     `json:"snapshot_version"`
	Categories       []string   `json:"categories"`
	SelectedCategory string     `json:"selected_category"`
	Rows             []Row      `json:"rows"`
	Pagination       Pagination `json:"pagination"`
}

// CategoriesResponse lists selectable categories.
type CategoriesResponse struct {
	SnapshotVersion string   `json:"snapshot_version"`
	Categories      []string `json:"categories"`
}

// Entity orders accepted by GET /entities.
const (
	OrderSource = "source"
	OrderMetric = "metric"
)

// EntitiesResponse is a whole snapshot in one order.
type EntitiesResponse struct {
	SnapshotVersion string `json:"snapshot_version"`
	Order           string `json:"order"`
	Count           int    `json:"count"`
	Rows            []Row  `json:"rows"`
}

// SessionResponse is returned by the session endpoints.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	View      View   `json:"view"`
}

// ReloadResponse reports the result of a reload request.
type ReloadResponse struct {
	Status          string `json:"status"`
	SnapshotVersion string `json:"snapshot_version,omitempty"`
	Entities        int    `json:"entities"`
}

// SessionCreateRequest optionally seeds a new session's state.
type SessionCreateRequest struct {
	Category string `json:"category,omitempty"`
	Page     int    `json:"page,omitempty"`
}

// CategoryRequest selects a category in a session.
type CategoryRequest struct {
	Category string `json:"category"`
}

// PageRequest moves a session to a page.
type PageRequest struct {
	Page int `json:"page"`
}

// RowFromEntity converts a ranked entity into an API row.
func RowFromEntity(rank int, e model.RankedEntity) Row {
	return Row{
		Rank:           rank,
		ID:             e.ID,
		DisplayName:    e.DisplayName,
		MetricValue:    e.MetricValue,
		Category:       e.Category,
		SecondaryLabel: e.Attributes.SecondaryLabel,
		ProfileURL:     e.Attributes.ProfileURL,
		ImageURL:       e.Attributes.ImageURL,
		Popularity:     e.Attributes.Popularity,
	}
}

// ViewFromBundle converts an assembled bundle into its API form.
func ViewFromBundle(b ranking.Bundle) View {
	rows := make([]Row, len(b.Rows))
	for i, r := range b.Rows {
		rows[i] = RowFromEntity(r.Rank, r.Entity)
	}
	categories := append([]string{}, b.Categories...)
	return View{
		SnapshotVersion:  b.SnapshotVersion,
		Categories:       categories,
		SelectedCategory: b.SelectedCategory,
		Rows:             rows,
		Pagination: Pagination{
			Page:       b.EffectivePage,
			PageSize:   b.PageSize,
			TotalItems: b.TotalItems,
			TotalPages: b.TotalPages,
			HasPrev:    b.HasPrev,
			HasNext:    b.HasNext,
		},
	}
}

// EntitiesInSourceOrder lists entities as loaded. Rows carry no rank.
func EntitiesInSourceOrder(version string, entities []model.RankedEntity) EntitiesResponse {
	rows := make([]Row, len(entities))
	for i, e := range entities {
		rows[i] = RowFromEntity(0, e)
	}
	return EntitiesResponse{SnapshotVersion: version, Order: OrderSource, Count: len(rows), Rows: rows}
}

// EntitiesInMetricOrder lists a fully sorted entity list with ranks.
func EntitiesInMetricOrder(version string, ordered []model.RankedEntity) EntitiesResponse {
	rows := make([]Row, len(ordered))
	for i, e := range ordered {
		rows[i] = RowFromEntity(i+1, e)
	}
	return EntitiesResponse{SnapshotVersion: version, Order: OrderMetric, Count: len(rows), Rows: rows}
}
