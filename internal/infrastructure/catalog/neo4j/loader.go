// Package neo4j reads the reference catalog from a Neo4j graph once at
// startup, and can seed the graph from another catalog.
//
// Nodes: (:Crop) and (:Fertilizer) with the catalog fields as properties and
// an integer ord property that fixes search order.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/catalog"
)

type Config struct {
	URI      string
	User     string
	Password string
	Database string
	Timeout  time.Duration
}

type Loader struct {
	driver   neo4j.DriverWithContext
	database string
}

func Connect(ctx context.Context, cfg Config) (*Loader, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = 4
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}
	return &Loader{driver: driver, database: cfg.Database}, nil
}

func (l *Loader) Close(ctx context.Context) error {
	return l.driver.Close(ctx)
}

// Load reads every crop and fertilizer node into an immutable catalog.
func (l *Loader) Load(ctx context.Context) (*catalog.Graph, error) {
	session := l.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: l.database,
	})
	defer session.Close(ctx)

	crops, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]domain.CropNorm, error) {
		records, err := collectNodes(ctx, tx, `MATCH (c:Crop) RETURN c AS n ORDER BY c.ord, c.id`)
		if err != nil {
			return nil, err
		}
		out := make([]domain.CropNorm, 0, len(records))
		for _, props := range records {
			out = append(out, cropFromProps(props))
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: read crops: %w", err)
	}

	fertilizers, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]domain.FertilizerNorm, error) {
		records, err := collectNodes(ctx, tx, `MATCH (f:Fertilizer) RETURN f AS n ORDER BY f.ord, f.id`)
		if err != nil {
			return nil, err
		}
		out := make([]domain.FertilizerNorm, 0, len(records))
		for _, props := range records {
			out = append(out, fertilizerFromProps(props))
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: read fertilizers: %w", err)
	}

	return catalog.New(crops, fertilizers)
}

// Seed merges every record of src into the graph by id.
func (l *Loader) Seed(ctx context.Context, src *catalog.Graph) error {
	session := l.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: l.database,
	})
	defer session.Close(ctx)

	crops := make([]map[string]any, 0)
	for i, c := range src.Crops() {
		crops = append(crops, cropToProps(i, c))
	}
	fertilizers := make([]map[string]any, 0)
	for i, f := range src.Fertilizers() {
		fertilizers = append(fertilizers, fertilizerToProps(i, f))
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (c:Crop {id: row.id})
SET c += row
`, map[string]any{"rows": crops})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
UNWIND $rows AS row
MERGE (f:Fertilizer {id: row.id})
SET f += row
`, map[string]any{"rows": fertilizers})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4j: seed catalog: %w", err)
	}
	return nil
}

func collectNodes(ctx context.Context, tx neo4j.ManagedTransaction, query string) ([]map[string]any, error) {
	res, err := tx.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "n")
		if err != nil {
			return nil, err
		}
		out = append(out, node.Props)
	}
	return out, nil
}
