package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/fennwick/cardroom/pkg/entities"
)

// ElasticsearchConfig holds configuration for the round archiver.
type ElasticsearchConfig struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
}

// DefaultElasticsearchConfig returns a default archiver configuration.
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:         "http://localhost:9200",
		IndexPrefix: "cardroom",
	}
}

// ElasticsearchRepository wraps a base repository and additionally
// indexes every settled round into a monthly Elasticsearch index for
// analytics. Reads are served from the base repository; indexing
// failures are reported but never block gameplay persistence.
type ElasticsearchRepository struct {
	base        Repository
	client      *elasticsearch.Client
	indexPrefix string
}

// roundDocument is the indexed form of a round record.
type roundDocument struct {
	ID          string    `json:"id"`
	GameType    string    `json:"game_type"`
	Outcome     string    `json:"outcome"`
	NetProfit   int64     `json:"net_profit"`
	HandCount   int       `json:"hand_count"`
	PlayerScore int       `json:"player_score"`
	HouseScore  int       `json:"house_score"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewElasticsearchRepository creates an archiving repository around base.
func NewElasticsearchRepository(base Repository, config *ElasticsearchConfig) (*ElasticsearchRepository, error) {
	if config == nil {
		config = DefaultElasticsearchConfig()
	}
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	prefix := config.IndexPrefix
	if prefix == "" {
		prefix = "cardroom"
	}

	return &ElasticsearchRepository{
		base:        base,
		client:      client,
		indexPrefix: prefix,
	}, nil
}

// SaveRound persists through the base repository, then indexes the round.
func (r *ElasticsearchRepository) SaveRound(ctx context.Context, record *entities.RoundRecord) error {
	if err := r.base.SaveRound(ctx, record); err != nil {
		return err
	}

	doc := roundDocument{
		ID:          record.ID,
		GameType:    string(record.GameType),
		Outcome:     record.Outcome,
		NetProfit:   record.NetProfit,
		HandCount:   record.HandCount,
		PlayerScore: record.PlayerScore,
		HouseScore:  record.HouseScore,
		CompletedAt: record.CompletedAt,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error encoding round document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      r.currentIndex(record.CompletedAt),
		DocumentID: record.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error indexing round: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("error indexing round: %s", res.String())
	}
	return nil
}

// RecentRounds reads from the base repository
func (r *ElasticsearchRepository) RecentRounds(ctx context.Context, gameType entities.GameType, limit int) ([]*entities.RoundRecord, error) {
	return r.base.RecentRounds(ctx, gameType, limit)
}

// Close closes the base repository
func (r *ElasticsearchRepository) Close() error {
	return r.base.Close()
}

// currentIndex returns the monthly index name for a round.
func (r *ElasticsearchRepository) currentIndex(t time.Time) string {
	return fmt.Sprintf("%s-rounds-%s", r.indexPrefix, t.UTC().Format("2006.01"))
}
