// Package flowgraph builds the Sankey-style flow graph connecting weak
// assessment dimensions to use cases and externally tracked features. All
// functions are pure and deterministic: identical inputs produce identical
// node and link ordering.
package flowgraph

import (
	"sort"
	"strconv"

	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/scoring"
)

// Node types.
const (
	NodeDimension = "dimension"
	NodeUseCase   = "use_case"
	NodeFeature   = "tp_feature"
)

// Link weight for an optional use-case→feature edge. Required features get
// full weight. The optional scaling is a display concern, not a scoring one.
const optionalFeatureWeight = 0.5

// Node is a single flow-graph node.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Score    *float64 `json:"score,omitempty"`
	Gap      *float64 `json:"gap,omitempty"`
	Color    string   `json:"color,omitempty"`
	Required *bool    `json:"required,omitempty"`
}

// Link is a weighted edge between two nodes.
type Link struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

// Graph is the node+link structure rendered as a Sankey diagram.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Counts summarizes a graph by node type.
type Counts struct {
	WeakDimensions      int `json:"weak_dimensions_count"`
	RecommendedUseCases int `json:"recommended_use_cases_count"`
	TPFeatures          int `json:"tp_features_count"`
}

// WeakDimensions returns the ids of dimensions whose score is defined and
// strictly below threshold, sorted ascending. A dimension at exactly the
// threshold is not weak.
func WeakDimensions(dimScores map[uint]*float64, threshold float64) []uint {
	var weak []uint
	for id, s := range dimScores {
		if s != nil && *s < threshold {
			weak = append(weak, id)
		}
	}
	sort.Slice(weak, func(i, j int) bool { return weak[i] < weak[j] })
	return weak
}

// Build expands weak dimensions through the dimension→use-case and
// use-case→feature mappings into a flow graph. Dimensions appear in
// template position order, use cases and features in first-reached order
// with ties broken by id.
func Build(dims []models.Dimension, dimScores map[uint]*float64, threshold float64,
	dimUseCases []models.DimensionUseCase, useCaseFeatures []models.UseCaseFeature) Graph {

	weak := WeakDimensions(dimScores, threshold)
	weakSet := make(map[uint]bool, len(weak))
	for _, id := range weak {
		weakSet[id] = true
	}

	dimByID := make(map[uint]models.Dimension, len(dims))
	for _, d := range dims {
		dimByID[d.ID] = d
	}

	// Weak dimensions in template position order.
	var weakDims []models.Dimension
	for _, d := range dims {
		if weakSet[d.ID] {
			weakDims = append(weakDims, d)
		}
	}
	sort.SliceStable(weakDims, func(i, j int) bool {
		if weakDims[i].Position != weakDims[j].Position {
			return weakDims[i].Position < weakDims[j].Position
		}
		return weakDims[i].ID < weakDims[j].ID
	})

	ucByDim := make(map[uint][]models.DimensionUseCase)
	for _, m := range dimUseCases {
		ucByDim[m.DimensionID] = append(ucByDim[m.DimensionID], m)
	}
	for dimID := range ucByDim {
		ms := ucByDim[dimID]
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].UseCaseID < ms[j].UseCaseID })
	}

	ftByUC := make(map[string][]models.UseCaseFeature)
	for _, m := range useCaseFeatures {
		ftByUC[m.UseCaseID] = append(ftByUC[m.UseCaseID], m)
	}
	for ucID := range ftByUC {
		ms := ftByUC[ucID]
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].FeatureID < ms[j].FeatureID })
	}

	var g Graph
	seenUC := make(map[string]bool)
	seenFT := make(map[string]bool)

	for _, dim := range weakDims {
		score := dimScores[dim.ID]
		gap := threshold - *score
		g.Nodes = append(g.Nodes, Node{
			ID:    nodeID("dim", dim.ID),
			Type:  NodeDimension,
			Label: dim.Name,
			Score: score,
			Gap:   &gap,
			Color: scoring.Color(*score),
		})

		for _, m := range ucByDim[dim.ID] {
			ucNode := "uc:" + m.UseCaseID
			firstReach := !seenUC[m.UseCaseID]
			if firstReach {
				seenUC[m.UseCaseID] = true
				g.Nodes = append(g.Nodes, Node{
					ID:    ucNode,
					Type:  NodeUseCase,
					Label: m.UseCase.Name,
				})
			}
			g.Links = append(g.Links, Link{
				Source: nodeID("dim", dim.ID),
				Target: ucNode,
				Value:  m.ImpactWeight,
			})

			// Feature fan-out happens once per use case, on first reach.
			if !firstReach {
				continue
			}
			for _, fm := range ftByUC[m.UseCaseID] {
				ftNode := "ft:" + fm.FeatureID
				if !seenFT[fm.FeatureID] {
					seenFT[fm.FeatureID] = true
					required := fm.Required
					g.Nodes = append(g.Nodes, Node{
						ID:       ftNode,
						Type:     NodeFeature,
						Label:    fm.Feature.Name,
						Required: &required,
					})
				}
				value := optionalFeatureWeight
				if fm.Required {
					value = 1.0
				}
				g.Links = append(g.Links, Link{
					Source: ucNode,
					Target: ftNode,
					Value:  value,
				})
			}
		}
	}
	return g
}

// SummaryCounts returns distinct node counts by type.
func SummaryCounts(nodes []Node) Counts {
	var c Counts
	for _, n := range nodes {
		switch n.Type {
		case NodeDimension:
			c.WeakDimensions++
		case NodeUseCase:
			c.RecommendedUseCases++
		case NodeFeature:
			c.TPFeatures++
		}
	}
	return c
}

func nodeID(prefix string, id uint) string {
	return prefix + ":" + strconv.FormatUint(uint64(id), 10)
}
