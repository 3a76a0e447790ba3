// Package repository persists the scored fraud graph to a Cypher-speaking
// graph database and reads score tables back for serving. The engine owns
// no serialization; everything on-disk or on-wire happens here.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meghna/ringsight/internal/domain"
	"github.com/meghna/ringsight/internal/graph"
)

// ErrScoreNotFound indicates the requested account has no persisted score.
var ErrScoreNotFound = errors.New("score not found")

// ScoredGraph bundles everything one pipeline run produced that is worth
// persisting: the typed nodes and edges, the score table, and the raw
// assignments used to emit account→identifier/touchpoint usage links.
type ScoredGraph struct {
	Nodes       []domain.Node
	Edges       []domain.Edge
	Scores      []domain.Score
	Identifiers []domain.IdentifierAssignment
	Touchpoints []domain.TouchpointAssignment
}

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// SaveScoredGraph writes a complete scored snapshot in one transaction.
// Nodes and relationships are merged on stable keys, so re-scoring the
// same snapshot is idempotent.
func (r *Repository) SaveScoredGraph(ctx context.Context, scored ScoredGraph) error {
	scores := make(map[string]domain.Score, len(scored.Scores))
	for _, score := range scored.Scores {
		scores[score.AccountID] = score
	}

	statements := make([]graph.Statement, 0, len(scored.Nodes)+len(scored.Edges))

	for _, node := range scored.Nodes {
		stmt, err := nodeStatement(node, scores)
		if err != nil {
			return err
		}
		statements = append(statements, stmt)
	}

	for _, edge := range scored.Edges {
		cypher, ok := edgeCypher[edge.Type]
		if !ok {
			return fmt.Errorf("edge %s->%s: unknown edge type %q", edge.Source, edge.Target, edge.Type)
		}
		params := map[string]any{
			"sourceId": edge.Source,
			"targetId": edge.Target,
		}
		if edge.Type == domain.EdgeTypeMoneyFlow {
			params["txnId"] = edge.TransactionID
			params["amount"] = edge.Amount
			params["timestamp"] = edge.Timestamp
		}
		statements = append(statements, graph.Statement{Cypher: cypher, Params: params})
	}

	for _, assignment := range scored.Identifiers {
		statements = append(statements, graph.Statement{
			Cypher: usesIdentifierCypher,
			Params: map[string]any{
				"accountId": assignment.AccountID,
				"value":     assignment.Value,
			},
		})
	}
	for _, visit := range scored.Touchpoints {
		statements = append(statements, graph.Statement{
			Cypher: usedTouchpointCypher,
			Params: map[string]any{
				"accountId":    visit.AccountID,
				"touchpointId": visit.TouchpointID,
			},
		})
	}

	if err := r.client.ExecuteBatch(ctx, statements); err != nil {
		return fmt.Errorf("save scored graph: %w", err)
	}
	return nil
}

// ResetGraph removes every node and relationship. Used before re-seeding a
// fresh snapshot.
func (r *Repository) ResetGraph(ctx context.Context) error {
	if _, err := r.client.ExecuteWrite(ctx, resetGraphCypher, nil); err != nil {
		return fmt.Errorf("reset graph: %w", err)
	}
	return nil
}

// FetchScores returns all persisted account scores ordered by account ID.
func (r *Repository) FetchScores(ctx context.Context) ([]domain.Score, error) {
	res, err := r.client.ExecuteRead(ctx, fetchScoresCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch scores query: %w", err)
	}

	scores := make([]domain.Score, 0, len(res.Records))
	for _, record := range res.Records {
		score, err := scoreFromRecord(record)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// FetchScore returns the persisted score for a single account.
func (r *Repository) FetchScore(ctx context.Context, accountID string) (domain.Score, error) {
	if accountID == "" {
		return domain.Score{}, errors.New("account id is required")
	}

	res, err := r.client.ExecuteRead(ctx, fetchScoreCypher, map[string]any{"accountId": accountID})
	if err != nil {
		return domain.Score{}, fmt.Errorf("fetch score query: %w", err)
	}
	if len(res.Records) == 0 {
		return domain.Score{}, fmt.Errorf("account %s: %w", accountID, ErrScoreNotFound)
	}

	return scoreFromRecord(res.Records[0])
}

func nodeStatement(node domain.Node, scores map[string]domain.Score) (graph.Statement, error) {
	switch node.Type {
	case domain.NodeTypeAccount:
		score, scored := scores[node.ID]
		flagsJSON := "[]"
		if scored && len(score.Flags) > 0 {
			encoded, err := json.Marshal(score.Flags)
			if err != nil {
				return graph.Statement{}, fmt.Errorf("encode flags for %s: %w", node.ID, err)
			}
			flagsJSON = string(encoded)
		}
		return graph.Statement{
			Cypher: upsertAccountCypher,
			Params: map[string]any{
				"accountId": node.ID,
				"props": map[string]any{
					"holder":        node.Holder,
					"accountType":   string(node.AccountType),
					"ring":          node.Ring,
					"ownScore":      score.OwnScore,
					"contamination": score.Contamination,
					"finalScore":    score.FinalScore,
					"tier":          string(score.Tier),
					"inLoop":        score.InLoop,
					"flags":         flagsJSON,
				},
			},
		}, nil
	case domain.NodeTypeIdentifier:
		return graph.Statement{
			Cypher: upsertIdentifierCypher,
			Params: map[string]any{
				"value":          node.ID,
				"identifierType": string(node.IdentifierType),
			},
		}, nil
	case domain.NodeTypeTouchpoint:
		return graph.Statement{
			Cypher: upsertTouchpointCypher,
			Params: map[string]any{"touchpointId": node.ID},
		}, nil
	default:
		return graph.Statement{}, fmt.Errorf("node %s: unknown node type %q", node.ID, node.Type)
	}
}

func scoreFromRecord(record graph.Record) (domain.Score, error) {
	score := domain.Score{
		AccountID:     toString(record["accountId"]),
		OwnScore:      toInt(record["ownScore"]),
		Contamination: toFloat64(record["contamination"]),
		FinalScore:    toFloat64(record["finalScore"]),
		Tier:          domain.Tier(toString(record["tier"])),
		InLoop:        toBool(record["inLoop"]),
	}

	if raw := toString(record["flags"]); raw != "" && raw != "[]" {
		if err := json.Unmarshal([]byte(raw), &score.Flags); err != nil {
			return domain.Score{}, fmt.Errorf("decode flags for %s: %w", score.AccountID, err)
		}
	}
	return score, nil
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int64:
		return float64(val)
	case int:
		return float64(val)
	default:
		return 0
	}
}

func toInt(v any) int {
	switch val := v.(type) {
	case int64:
		return int(val)
	case int:
		return val
	case float64:
		return int(val)
	default:
		return 0
	}
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

const upsertAccountCypher = `
MERGE (a:Account {accountId: $accountId})
SET a += $props
`

const upsertIdentifierCypher = `
MERGE (i:Identifier {value: $value})
SET i.identifierType = $identifierType
`

const upsertTouchpointCypher = `
MERGE (t:Touchpoint {touchpointId: $touchpointId})
`

const usesIdentifierCypher = `
MATCH (a:Account {accountId: $accountId})
MATCH (i:Identifier {value: $value})
MERGE (a)-[:USES_IDENTIFIER]->(i)
`

const usedTouchpointCypher = `
MATCH (a:Account {accountId: $accountId})
MATCH (t:Touchpoint {touchpointId: $touchpointId})
MERGE (a)-[:USED_TOUCHPOINT]->(t)
`

const resetGraphCypher = `
MATCH (n)
DETACH DELETE n
`

const fetchScoresCypher = `
MATCH (a:Account)
RETURN a.accountId AS accountId,
       a.ownScore AS ownScore,
       a.contamination AS contamination,
       a.finalScore AS finalScore,
       a.tier AS tier,
       a.inLoop AS inLoop,
       a.flags AS flags
ORDER BY a.accountId
`

const fetchScoreCypher = `
MATCH (a:Account {accountId: $accountId})
RETURN a.accountId AS accountId,
       a.ownScore AS ownScore,
       a.contamination AS contamination,
       a.finalScore AS finalScore,
       a.tier AS tier,
       a.inLoop AS inLoop,
       a.flags AS flags
`

// edgeCypher selects the merge statement for each engine edge type.
// Relationship types cannot be parameterised in Cypher, hence one constant
// per type. shared_* merges carry no properties so the symmetric pair from
// the engine dedupes to one relationship per direction; money_flow merges
// key on the transaction ID so parallel transfers survive.
var edgeCypher = map[domain.EdgeType]string{
	domain.EdgeTypeSharedIP: `
MATCH (a:Account {accountId: $sourceId})
MATCH (b:Account {accountId: $targetId})
MERGE (a)-[:SHARED_IP]->(b)
`,
	domain.EdgeTypeSharedDevice: `
MATCH (a:Account {accountId: $sourceId})
MATCH (b:Account {accountId: $targetId})
MERGE (a)-[:SHARED_DEVICE]->(b)
`,
	domain.EdgeTypeSharedTouchpoint: `
MATCH (a:Account {accountId: $sourceId})
MATCH (b:Account {accountId: $targetId})
MERGE (a)-[:SHARED_TOUCHPOINT]->(b)
`,
	domain.EdgeTypeMoneyFlow: `
MATCH (a:Account {accountId: $sourceId})
MATCH (b:Account {accountId: $targetId})
MERGE (a)-[f:MONEY_FLOW {txnId: $txnId}]->(b)
SET f.amount = $amount, f.timestamp = $timestamp
`,
}
