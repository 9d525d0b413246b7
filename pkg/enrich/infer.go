package enrich

import (
	"fmt"
	"strings"

	"github.com/archivis/archivis/pkg/ir"
)

// Inference rule names, recorded on every synthesized edge.
const (
	RuleZoneCascade     = "zone_cascade"
	RuleTechDependency  = "tech_dependency"
	RuleCompletionGuard = "completion_guard"
)

// Rule confidences. The completion guard must stay the lowest of the three;
// it is a backstop, not a semantic statement.
const (
	confZoneCascade     = 0.5
	confTechDependency  = 0.5
	confCompletionGuard = 0.3
)

// techPair describes a label-keyword dependency pattern. Any node matching a
// source keyword gets an async edge to any node matching a target keyword,
// unless an explicit edge already covers that pair.
type techPair struct {
	sourceKeywords []string
	targetKeywords []string
	relationType   string
}

var techPairs = []techPair{
	{[]string{"kafka"}, []string{"processor", "consumer"}, "publishes events"},
	{[]string{"queue", "rabbitmq", "sqs"}, []string{"worker", "consumer"}, "enqueues work"},
	{[]string{"scheduler", "cron"}, []string{"worker", "job"}, "triggers"},
}

// inferConnectivity synthesizes edges until the diagram is visually
// connected. Rules run in a fixed order: zone cascade, tech dependency,
// completion guard. An explicit edge between an exact (from, to) pair always
// suppresses the corresponding inferred one; suppression is never silent
// beyond that exact pair.
func (b *builder) inferConnectivity() {
	b.runZoneCascade()
	b.runTechDependency()
	b.runCompletionGuard()
}

// edgePairs returns the set of (from, to) node-id pairs currently present.
func (b *builder) edgePairs() map[string]bool {
	pairs := make(map[string]bool, len(b.result.Edges))
	for _, e := range b.result.Edges {
		pairs[e.From+"\x00"+e.To] = true
	}
	return pairs
}

func pairKey(from, to *Node) string {
	return from.ID + "\x00" + to.ID
}

// cascadeChain returns the fixed cascade order. The chain is always
// clients -> edge -> core_services -> data_stores; external_services is
// folded in before data_stores only when the zone has members. Empty zones
// elsewhere stay in the chain and break it rather than collapsing it, so a
// plan with no edge zone never gets a fabricated clients -> core_services
// shortcut.
func (b *builder) cascadeChain() []string {
	hasExternal := false
	for _, n := range b.result.Nodes {
		if n.Zone == ZoneExternalServices {
			hasExternal = true
			break
		}
	}
	chain := []string{ZoneClients, ZoneEdge, ZoneCoreServices}
	if hasExternal {
		chain = append(chain, ZoneExternalServices)
	}
	return append(chain, ZoneDataStores)
}

// firstInZone returns the lexicographically first node of a zone. Nodes are
// not yet sorted at inference time, so the scan picks the minimum label to
// keep the choice deterministic.
func (b *builder) firstInZone(zone string) *Node {
	var best *Node
	for i := range b.result.Nodes {
		n := &b.result.Nodes[i]
		if n.Zone != zone {
			continue
		}
		if best == nil || n.Label < best.Label {
			best = n
		}
	}
	return best
}

// runZoneCascade bridges each adjacent pair in the cascade chain. A pair is
// only bridged when both zones have members and no explicit edge already
// crosses between them.
func (b *builder) runZoneCascade() {
	chain := b.cascadeChain()

	bridged := map[string]bool{}
	for _, e := range b.result.Edges {
		fz, tz := b.zoneOf(e.From), b.zoneOf(e.To)
		bridged[fz+"\x00"+tz] = true
		bridged[tz+"\x00"+fz] = true
	}

	for i := 0; i+1 < len(chain); i++ {
		upstream, downstream := chain[i], chain[i+1]
		if bridged[upstream+"\x00"+downstream] {
			continue
		}
		from, to := b.firstInZone(upstream), b.firstInZone(downstream)
		if from == nil || to == nil {
			continue
		}
		reason := fmt.Sprintf("no explicit edge bridges %s and %s", upstream, downstream)
		b.addInferredEdge(from, to, "depends on", RuleZoneCascade, reason, confZoneCascade)
		bridged[upstream+"\x00"+downstream] = true
	}
}

func (b *builder) zoneOf(nodeID string) string {
	for i := range b.result.Nodes {
		if b.result.Nodes[i].ID == nodeID {
			return b.result.Nodes[i].Zone
		}
	}
	return ""
}

// runTechDependency applies keyword-pattern pairs. Matches always become
// async edges; the technologies the patterns describe communicate through
// brokers or schedules, never synchronously.
func (b *builder) runTechDependency() {
	pairs := b.edgePairs()
	for _, tp := range techPairs {
		for i := range b.result.Nodes {
			src := &b.result.Nodes[i]
			if !labelMatches(src.Label, tp.sourceKeywords) {
				continue
			}
			for j := range b.result.Nodes {
				dst := &b.result.Nodes[j]
				if i == j || !labelMatches(dst.Label, tp.targetKeywords) {
					continue
				}
				if pairs[pairKey(src, dst)] || pairs[pairKey(dst, src)] {
					continue
				}
				reason := fmt.Sprintf("%q and %q match a known technology dependency", src.Label, dst.Label)
				e := b.addInferredEdge(src, dst, tp.relationType, RuleTechDependency, reason, confTechDependency)
				e.Category = ir.CategoryAsync
				applyEdgeStyle(e)
				pairs[pairKey(src, dst)] = true
			}
		}
	}
}

func labelMatches(label string, keywords []string) bool {
	lower := strings.ToLower(label)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// runCompletionGuard connects every remaining isolated node, then links any
// disjoint components together. After the guard no node is isolated and the
// edge count is at least node count minus one, so downstream renderers never
// see floating fragments.
func (b *builder) runCompletionGuard() {
	if len(b.result.Nodes) < 2 {
		return
	}

	degree := map[string]int{}
	for _, e := range b.result.Edges {
		degree[e.From]++
		degree[e.To]++
	}

	var anchor *Node
	for i := range b.result.Nodes {
		if degree[b.result.Nodes[i].ID] > 0 {
			anchor = &b.result.Nodes[i]
			break
		}
	}
	if anchor == nil {
		anchor = &b.result.Nodes[0]
	}

	pairs := b.edgePairs()
	for i := range b.result.Nodes {
		n := &b.result.Nodes[i]
		if degree[n.ID] > 0 || n == anchor {
			continue
		}
		if pairs[pairKey(anchor, n)] || pairs[pairKey(n, anchor)] {
			continue
		}
		reason := fmt.Sprintf("%q had no incident edges after inference", n.Label)
		b.addInferredEdge(anchor, n, "relates to", RuleCompletionGuard, reason, confCompletionGuard)
		pairs[pairKey(anchor, n)] = true
		degree[anchor.ID]++
		degree[n.ID]++
	}

	b.mergeComponents(pairs)
}

// mergeComponents links disjoint connected components to the component of
// the first node. Uses the edges as an undirected graph.
func (b *builder) mergeComponents(pairs map[string]bool) {
	parent := map[string]string{}
	var find func(string) string
	find = func(x string) string {
		if parent[x] == "" || parent[x] == x {
			parent[x] = x
			return x
		}
		root := find(parent[x])
		parent[x] = root
		return root
	}
	union := func(a, c string) { parent[find(a)] = find(c) }

	for i := range b.result.Nodes {
		find(b.result.Nodes[i].ID)
	}
	for _, e := range b.result.Edges {
		union(e.From, e.To)
	}

	root := find(b.result.Nodes[0].ID)
	first := &b.result.Nodes[0]
	seen := map[string]bool{root: true}
	for i := range b.result.Nodes {
		n := &b.result.Nodes[i]
		r := find(n.ID)
		if seen[r] {
			continue
		}
		seen[r] = true
		if pairs[pairKey(first, n)] || pairs[pairKey(n, first)] {
			union(first.ID, n.ID)
			continue
		}
		reason := fmt.Sprintf("%q was disconnected from the rest of the diagram", n.Label)
		b.addInferredEdge(first, n, "relates to", RuleCompletionGuard, reason, confCompletionGuard)
		pairs[pairKey(first, n)] = true
		union(first.ID, n.ID)
	}
}

// addInferredEdge appends a styled inferred edge plus its audit record and
// returns a pointer to the stored edge for post-adjustment.
func (b *builder) addInferredEdge(from, to *Node, relType, rule, reason string, confidence float64) *Edge {
	e := Edge{
		From:         from.ID,
		To:           to.ID,
		FromLabel:    from.Label,
		ToLabel:      to.Label,
		RelationType: relType,
		Category:     categorize(relType),
		Mode:         ir.ModeInferred,
		Label:        relType,
		Confidence:   confidence,
		Reason:       reason,
		Rule:         rule,
	}
	applyEdgeStyle(&e)
	b.result.Edges = append(b.result.Edges, e)
	b.result.Inferences = append(b.result.Inferences, InferenceRecord{
		Rule:       rule,
		Reason:     reason,
		Confidence: confidence,
	})
	b.result.Log = append(b.result.Log, LogEntry{
		Kind:       "inferred_edge",
		Subject:    from.Label + "->" + to.Label,
		Message:    reason,
		Confidence: confidence,
	})
	return &b.result.Edges[len(b.result.Edges)-1]
}
