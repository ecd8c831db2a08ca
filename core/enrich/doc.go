// Package enrich overlays security agent data onto existing assets.
//
// Each asset carries a fixed set of nullable text columns (see Slots),
// provisioned by the migrate command. A Merger looks up the agent reporting
// the asset's serial through an AgentSource, renders the agent and its most
// recent incidents and remediations into those columns, and writes them in a
// single UPDATE only when something changed. An asset whose agent disappeared
// has every column cleared.
package enrich
