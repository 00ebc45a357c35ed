// Package domain defines the persistence models for sightings, cats, and
// their derived artifacts (analyses and insights). These types are mapped
// with GORM and form the core data layer of the CatAtlas application.
package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Entry represents a single community-submitted cat sighting. The free-text
// note is the only required field; nickname, location, and photo are
// optional. Coordinate fields stay nil until the location has been geocoded.
//
// Entries are immutable after creation except for: favorite toggle, cat
// assignment, photo replacement, and location normalization.
type Entry struct {
	ID         int64   `json:"id"          gorm:"primaryKey;autoIncrement"`
	Text       string  `json:"text"        gorm:"type:text;not null"`
	IsFavorite bool    `json:"is_favorite" gorm:"not null;default:false"`
	Nickname   *string `json:"nickname,omitempty"  gorm:"type:varchar(100)"`
	Location   *string `json:"location,omitempty"  gorm:"type:varchar(200)"`
	CatID      *int64  `json:"cat_id,omitempty"    gorm:"index"`
	PhotoURL   *string `json:"photo_url,omitempty" gorm:"type:varchar(1000)"`

	// Geocoding results (OpenStreetMap Nominatim). Absent until the
	// location has been normalized.
	LocationNormalized *string  `json:"location_normalized,omitempty"`
	LocationLat        *float64 `json:"location_lat,omitempty"`
	LocationLon        *float64 `json:"location_lon,omitempty"`
	LocationOSMID      *string  `json:"location_osm_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Cat is the identity this sighting is assigned to, if any. The
	// reference is weak: deleting a cat detaches its sightings.
	Cat *Cat `json:"-" gorm:"foreignKey:CatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Entry.
func (Entry) TableName() string { return "entries" }

// HasCoords reports whether the entry carries a full geocoded coordinate pair.
func (e *Entry) HasCoords() bool { return e.LocationLat != nil && e.LocationLon != nil }

// Cat is an identity grouping one or more sightings. It may be anonymous;
// id and creation time are the only required attributes.
type Cat struct {
	ID        int64     `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name      *string   `json:"name,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Cat.
func (Cat) TableName() string { return "cats" }

// Analysis is the cached baseline analysis of one entry, one-to-one with
// the entry. TextHash is the staleness key: when it no longer matches the
// hash of the entry's current text, the row is stale and is regenerated
// lazily on the next analyze request.
type Analysis struct {
	EntryID   int64     `json:"entry_id"  gorm:"primaryKey"`
	TextHash  string    `json:"-"         gorm:"type:char(64);not null"`
	Summary   string    `json:"summary"   gorm:"type:text;not null"`
	TagsJSON  string    `json:"-"         gorm:"column:tags_json;type:text;not null"`
	Sentiment string    `json:"sentiment" gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Entry Entry `json:"-" gorm:"foreignKey:EntryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Analysis.
func (Analysis) TableName() string { return "analyses" }

// Tags decodes the persisted tag list. Malformed stored JSON degrades to an
// empty list rather than surfacing a parse error; the analysis cache is
// disposable and best-effort by design.
func (a *Analysis) Tags() []string {
	var tags []string
	if err := json.Unmarshal([]byte(a.TagsJSON), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

// SetTags encodes tags into the persisted JSON column. A nil slice is
// stored as an empty array so round-trips stay exact.
func (a *Analysis) SetTags(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		b = []byte("[]")
	}
	a.TagsJSON = string(b)
}

// MarshalJSON serializes the decoded tag list alongside the regular columns,
// so API payloads carry tags as an array rather than the raw storage string.
func (a Analysis) MarshalJSON() ([]byte, error) {
	type alias Analysis
	return json.Marshal(struct {
		alias
		Tags []string `json:"tags"`
	}{alias: alias(a), Tags: a.Tags()})
}

// CatInsight is a cached generated insight for a cat, keyed by
// (cat_id, mode, prompt_version, context_hash). A change to the cat's
// contributing sightings produces a new context hash and therefore a new
// row; superseded rows are never deleted.
type CatInsight struct {
	ID            int64          `json:"id"             gorm:"primaryKey;autoIncrement"`
	CatID         int64          `json:"cat_id"         gorm:"not null;uniqueIndex:ux_cat_insight,priority:1"`
	Mode          string         `json:"mode"           gorm:"type:varchar(16);not null;uniqueIndex:ux_cat_insight,priority:2"`
	PromptVersion string         `json:"prompt_version" gorm:"type:varchar(16);not null;uniqueIndex:ux_cat_insight,priority:3"`
	ContextHash   string         `json:"context_hash"   gorm:"type:char(64);not null;uniqueIndex:ux_cat_insight,priority:4"`
	InsightJSON   datatypes.JSON `json:"insight"        gorm:"column:insight_json;not null"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	Cat Cat `json:"-" gorm:"foreignKey:CatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CatInsight.
func (CatInsight) TableName() string { return "cat_insights" }
