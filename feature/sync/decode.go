package sync

import (
	"errors"
	"fmt"

	"asset-sync/core/device"
	"asset-sync/core/enrich"

	"github.com/goccy/go-json"
)

// ErrBadSnapshot is returned when a snapshot does not have the expected shape.
var ErrBadSnapshot = errors.New("malformed snapshot")

// Kinds selects the jamf device kinds to reconcile.
type Kinds struct {
	Computers     bool
	MobileDevices bool
}

// DecodePayloads parses an asset source export into payloads.
//
// intune exports are either a JSON array of managed devices or a Graph page
// ({"value": [...]}). jamf exports are {"computers": [...], "mobile_devices": [...]}.
func DecodePayloads(source device.Source, raw []byte, kinds Kinds) ([]device.Payload, error) {
	switch source {
	case device.SourceIntune:
		docs, err := decodeIntune(raw)
		if err != nil {
			return nil, err
		}
		return payloads(source, device.KindComputer, docs), nil

	case device.SourceJamf:
		var doc struct {
			Computers     []map[string]any `json:"computers"`
			MobileDevices []map[string]any `json:"mobile_devices"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: jamf: %v", ErrBadSnapshot, err)
		}
		var out []device.Payload
		if kinds.Computers {
			out = append(out, payloads(source, device.KindComputer, doc.Computers)...)
		}
		if kinds.MobileDevices {
			out = append(out, payloads(source, device.KindMobile, doc.MobileDevices)...)
		}
		return out, nil

	case device.SourceHuntress:
		return nil, device.ErrNotAssetSource
	}
	return nil, fmt.Errorf("%w: %q", device.ErrUnknownSource, source)
}

func decodeIntune(raw []byte) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var page struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("%w: intune: %v", ErrBadSnapshot, err)
	}
	return page.Value, nil
}

func payloads(source device.Source, kind device.Kind, docs []map[string]any) []device.Payload {
	out := make([]device.Payload, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		p := device.Payload{Source: source, Data: d}
		if source == device.SourceJamf {
			p.Kind = kind
		}
		out = append(out, p)
	}
	return out
}

// DecodeAgents parses a huntress export ({"agents", "incidents", "remediations"})
// into an enrichment source.
func DecodeAgents(raw []byte) (*enrich.Snapshot, error) {
	var doc struct {
		Agents       []map[string]any `json:"agents"`
		Incidents    []map[string]any `json:"incidents"`
		Remediations []map[string]any `json:"remediations"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: huntress: %v", ErrBadSnapshot, err)
	}
	return enrich.NewSnapshot(doc.Agents, doc.Incidents, doc.Remediations), nil
}
