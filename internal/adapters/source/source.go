// Package source loads ranking snapshots from external systems.
//
// Every source returns the raw entities of one load; validation into a
// model.Snapshot happens in the caller so all sources share one contract.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/followrank/internal/domain/model"
)

// Source yields the entities of one snapshot.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Fetch loads the complete entity list.
	Fetch(ctx context.Context) ([]model.RankedEntity, error)
}

// ID accepts both numeric and string identifiers.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", node.Line)
	}
	*id = ID(node.Value)
	return nil
}

// Record is the wire shape of one ranked account. Both historical field
// spellings are accepted: username/accountName, region/area, avatar/imageUrl.
type Record struct {
	ID          ID     `json:"id" yaml:"id"`
	Username    string `json:"username,omitempty" yaml:"username,omitempty"`
	AccountName string `json:"accountName,omitempty" yaml:"accountName,omitempty"`
	StoreName   string `json:"storeName,omitempty" yaml:"storeName,omitempty"`
	Followers   int64  `json:"followers" yaml:"followers"`
	Popularity  int    `json:"popularity,omitempty" yaml:"popularity,omitempty"`
	Region      string `json:"region,omitempty" yaml:"region,omitempty"`
	Area        string `json:"area,omitempty" yaml:"area,omitempty"`
	Avatar      string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	ProfileURL  string `json:"profileUrl,omitempty" yaml:"profileUrl,omitempty"`
}

// Entity converts the record into a ranked entity.
func (r Record) Entity() model.RankedEntity {
	return model.RankedEntity{
		ID:          strings.TrimSpace(string(r.ID)),
		DisplayName: firstNonEmpty(r.Username, r.AccountName),
		MetricValue: r.Followers,
		Category:    firstNonEmpty(r.Region, r.Area),
		Attributes: model.Attributes{
			SecondaryLabel: r.StoreName,
			ProfileURL:     r.ProfileURL,
			ImageURL:       firstNonEmpty(r.ImageURL, r.Avatar),
			Popularity:     r.Popularity,
		},
	}
}

// RecordFromEntity is the inverse of Record.Entity using the primary spellings.
func RecordFromEntity(e model.RankedEntity) Record {
	return Record{
		ID:         ID(e.ID),
		Username:   e.DisplayName,
		StoreName:  e.Attributes.SecondaryLabel,
		Followers:  e.MetricValue,
		Popularity: e.Attributes.Popularity,
		Region:     e.Category,
		ImageURL:   e.Attributes.ImageURL,
		ProfileURL: e.Attributes.ProfileURL,
	}
}

// Entities converts records, preserving order.
func Entities(records []Record) []model.RankedEntity {
	out := make([]model.RankedEntity, len(records))
	for i, r := range records {
		out[i] = r.Entity()
	}
	return out
}

type envelope struct {
	Items []Record `json:"items" yaml:"items"`
}

// DecodeJSON accepts either a bare array of records or an {"items": [...]} envelope.
func DecodeJSON(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrDecode)
	}
	if data[0] == '[' {
		var records []Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return records, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return env.Items, nil
}

// DecodeYAML is DecodeJSON for YAML documents. JSON input is valid YAML.
func DecodeYAML(data []byte) ([]Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrDecode)
	}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var records []Record
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return records, nil
	case yaml.MappingNode:
		var env envelope
		if err := root.Decode(&env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return env.Items, nil
	default:
		return nil, fmt.Errorf("%w: line %d: expected a list or an items mapping", ErrDecode, root.Line)
	}
}

// EncodeYAML writes entities in the format DecodeYAML reads.
func EncodeYAML(entities []model.RankedEntity) ([]byte, error) {
	records := make([]Record, len(entities))
	for i, e := range entities {
		records[i] = RecordFromEntity(e)
	}
	return yaml.Marshal(envelope{Items: records})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
