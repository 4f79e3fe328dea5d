package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Condition describes the physical state of a secondhand copy.
type Condition string

const (
	ConditionLikeNew    Condition = "like_new"
	ConditionVeryGood   Condition = "very_good"
	ConditionGood       Condition = "good"
	ConditionAcceptable Condition = "acceptable"
)

// Valid reports whether c is one of the known condition grades.
func (c Condition) Valid() bool {
	switch c {
	case ConditionLikeNew, ConditionVeryGood, ConditionGood, ConditionAcceptable:
		return true
	}
	return false
}

// Status is the workflow state of a book listing.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusPendingReview Status = "pending_review"
	StatusLive          Status = "live"
	StatusSold          Status = "sold"
	StatusRemoved       Status = "removed"
)

// BookMeta is the open bibliographic metadata bag persisted as a JSON blob.
type BookMeta struct {
	Publisher     string   `json:"publisher,omitempty"`
	PublishDate   string   `json:"publish_date,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Language      string   `json:"language,omitempty"`
	AverageRating float64  `json:"average_rating,omitempty"`
	RatingsCount  int      `json:"ratings_count,omitempty"`
}

func (m BookMeta) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *BookMeta) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = BookMeta{}
		return nil
	case []byte:
		if len(v) == 0 {
			*m = BookMeta{}
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		if v == "" {
			*m = BookMeta{}
			return nil
		}
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported source type %T for BookMeta", src)
}

// Vibe is the structured enrichment record attached to a book.
type Vibe struct {
	EmotionalTones []string `json:"emotional_tones,omitempty"`
	IntensityScore int      `json:"intensity_score,omitempty"`
	Pace           string   `json:"pace,omitempty"`
	Atmosphere     []string `json:"atmosphere,omitempty"`
	Themes         []string `json:"themes,omitempty"`
	SimilarVibes   []string `json:"similar_vibes,omitempty"`
	Summary        string   `json:"summary,omitempty"`
}

func (v Vibe) Value() (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (v *Vibe) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = Vibe{}
		return nil
	case []byte:
		if len(s) == 0 {
			*v = Vibe{}
			return nil
		}
		return json.Unmarshal(s, v)
	case string:
		if s == "" {
			*v = Vibe{}
			return nil
		}
		return json.Unmarshal([]byte(s), v)
	}
	return fmt.Errorf("unsupported source type %T for Vibe", src)
}

// Book is the central listing entity. Prices are integer minor currency
// units. The metadata and enrichment bags are strongly typed in memory and
// serialized to JSON text columns through their Valuer/Scanner pairs.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID            string     `bun:",pk" json:"id"`
	ISBN          string     `bun:",unique,notnull" json:"isbn"`
	Title         string     `bun:",notnull" json:"title"`
	Author        string     `bun:",notnull" json:"author"`
	Description   string     `bun:",nullzero" json:"description,omitempty"`
	CoverURL      string     `bun:",nullzero" json:"cover_url,omitempty"`
	Condition     Condition  `bun:",notnull" json:"condition"`
	CostPrice     int64      `bun:",notnull" json:"cost_price"`
	SellPrice     int64      `bun:",notnull" json:"sell_price"`
	InStock       bool       `bun:",notnull" json:"in_stock"`
	Metadata      BookMeta   `bun:"metadata,type:text" json:"metadata"`
	VibeTags      string     `bun:",nullzero" json:"vibe_tags,omitempty"`
	AIEnrichment  Vibe       `bun:"ai_enrichment,type:text" json:"ai_enrichment"`
	ReviewSummary string     `bun:",nullzero" json:"review_summary,omitempty"`
	VectorID      string     `bun:",nullzero" json:"vector_id,omitempty"`
	Status        Status     `bun:",notnull" json:"status"`
	CreatedAt     time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	SoldAt        *time.Time `bun:",nullzero" json:"sold_at,omitempty"`
}

// Order links a sold book to a payment event. MonthKey (YYYY-MM) batches
// orders for later aggregation.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID         string    `bun:",pk" json:"id"`
	BookID     string    `bun:",notnull" json:"book_id"`
	Book       *Book     `bun:"rel:belongs-to,join:book_id=id" json:"-"`
	AmountPaid int64     `bun:",notnull" json:"amount_paid"`
	PaymentRef string    `bun:",nullzero" json:"payment_ref,omitempty"`
	MonthKey   string    `bun:",notnull" json:"month_key"`
	CreatedAt  time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}
